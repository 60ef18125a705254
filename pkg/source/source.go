// Package source resolves image identifiers to raw encoded bytes.
package source

import (
	"context"
	"net/http"
)

// InlineIdentifier stands in for the source of an image supplied with the
// request instead of by URL.
const InlineIdentifier = "none"

// FetchRequest names the image to fetch.
type FetchRequest struct {
	Identifier string
}

// FetchResult is the outcome of a fetch that reached the remote end. A non
// success StatusCode is a valid result, not an error.
type FetchResult struct {
	Identifier string
	StatusCode int
	Body       []byte
}

// Success reports whether the status code is in the 2xx class.
func (r *FetchResult) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Source fetches images. Errors report transport failures only.
type Source interface {
	Fetch(ctx context.Context, req FetchRequest) (*FetchResult, error)
}

// Inline wraps an image supplied with the request as a successful fetch.
func Inline(data []byte) *FetchResult {
	return &FetchResult{
		Identifier: InlineIdentifier,
		StatusCode: http.StatusOK,
		Body:       data,
	}
}
