// Package index defines the document store that processed images are written
// to and searched in.
package index

import (
	"context"
)

const (
	// DefaultIndex is the index name shared with existing deployments.
	DefaultIndex = "images"

	// DefaultType is the document type shared with existing deployments.
	DefaultType = "processed_images"
)

// StoreResult is the store's reply to a document write. Body is the raw reply;
// on success it carries the assigned "_id".
type StoreResult struct {
	StatusCode int
	Body       []byte
}

// SearchResult is the store's reply to a query, relayed without interpretation.
type SearchResult struct {
	StatusCode int
	Payload    []byte
}

// Store writes documents and runs queries. Errors report transport failures;
// a reply with a failing status is returned as a result.
type Store interface {
	Store(ctx context.Context, document []byte) (*StoreResult, error)
	Search(ctx context.Context, query []byte) (*SearchResult, error)
	Close() error
}

// Success reports whether status is in the 2xx class.
func Success(status int) bool {
	return status >= 200 && status < 300
}
