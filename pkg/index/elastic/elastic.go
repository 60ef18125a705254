// Package elastic provides an index store backed by an Elasticsearch cluster
// over its REST API.
package elastic

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/papercomputeco/visualsearch/pkg/index"
)

// DefaultTimeout bounds one request to the cluster.
const DefaultTimeout = 60 * time.Second

// Config configures the Elasticsearch store.
type Config struct {
	// URL is the cluster endpoint, e.g. "http://localhost:9200".
	URL string

	// Index defaults to index.DefaultIndex.
	Index string

	// Type is the mapping type used in document paths. Defaults to
	// index.DefaultType. Set it to "_doc" for clusters without mapping types.
	Type string

	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration

	// Client overrides the HTTP client.
	Client *http.Client
}

// Store implements index.Store against Elasticsearch. Replies are relayed as
// returned by the cluster.
type Store struct {
	storeURL   string
	searchURL  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewStore validates the configuration and builds the document and search
// endpoints. It does not contact the cluster.
func NewStore(c Config, logger *slog.Logger) (*Store, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("elasticsearch URL is required")
	}

	base, err := url.Parse(c.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid elasticsearch URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid elasticsearch URL scheme %q", base.Scheme)
	}

	if c.Index == "" {
		c.Index = index.DefaultIndex
	}
	if c.Type == "" {
		c.Type = index.DefaultType
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}

	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: c.Timeout}
	}

	s := &Store{
		storeURL:   base.JoinPath(c.Index, c.Type).String(),
		searchURL:  base.JoinPath(c.Index, c.Type, "_search").String(),
		httpClient: client,
		logger:     logger,
	}

	logger.Debug("configured elasticsearch store",
		"store_url", s.storeURL,
		"search_url", s.searchURL,
	)

	return s, nil
}

// Store indexes document with a cluster-assigned id.
func (s *Store) Store(ctx context.Context, document []byte) (*index.StoreResult, error) {
	status, body, err := s.post(ctx, s.storeURL, document)
	if err != nil {
		return nil, fmt.Errorf("storing document: %w", err)
	}
	return &index.StoreResult{StatusCode: status, Body: body}, nil
}

// Search runs query and returns the cluster's reply untouched.
func (s *Store) Search(ctx context.Context, query []byte) (*index.SearchResult, error) {
	status, body, err := s.post(ctx, s.searchURL, query)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	return &index.SearchResult{StatusCode: status, Payload: body}, nil
}

// Close releases idle connections.
func (s *Store) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}

func (s *Store) post(ctx context.Context, endpoint string, payload []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading response: %w", err)
	}

	if !index.Success(resp.StatusCode) {
		s.logger.Warn("elasticsearch request failed",
			"url", endpoint,
			"status", resp.StatusCode,
			"body", string(body),
		)
	}

	return resp.StatusCode, body, nil
}
