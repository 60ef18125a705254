package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/papercomputeco/visualsearch/pkg/utils"
)

const (
	// DefaultTimeout bounds a single fetch.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxBytes caps the size of a fetched image.
	DefaultMaxBytes int64 = 20 << 20
)

// ErrTooLarge is returned when a remote image exceeds the configured limit.
var ErrTooLarge = errors.New("image exceeds size limit")

// HTTPConfig configures an HTTPSource.
type HTTPConfig struct {
	// Timeout for the whole request, body included. Defaults to DefaultTimeout.
	Timeout time.Duration

	// MaxBytes is the largest body accepted. Defaults to DefaultMaxBytes.
	MaxBytes int64

	// UserAgent sent with every request. Defaults to "visualsearch/<version>".
	UserAgent string

	// Client overrides the HTTP client, mostly for tests.
	Client *http.Client
}

// HTTPSource fetches images over HTTP(S) with GET.
type HTTPSource struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
}

// NewHTTPSource creates an HTTPSource, applying defaults for unset fields.
func NewHTTPSource(c HTTPConfig) *HTTPSource {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = DefaultMaxBytes
	}
	if c.UserAgent == "" {
		c.UserAgent = "visualsearch/" + utils.Version
	}

	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: c.Timeout}
	}

	return &HTTPSource{
		client:    client,
		maxBytes:  c.MaxBytes,
		userAgent: c.UserAgent,
	}
}

// Fetch issues a GET for req.Identifier. Any response, whatever its status,
// is a result; only transport failures and oversized bodies are errors.
func (s *HTTPSource) Fetch(ctx context.Context, req FetchRequest) (*FetchResult, error) {
	u, err := url.Parse(req.Identifier)
	if err != nil {
		return nil, fmt.Errorf("invalid image URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported image URL scheme %q", u.Scheme)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating fetch request: %w", err)
	}
	httpReq.Header.Set("User-Agent", s.userAgent)
	httpReq.Header.Set("Accept", "image/jpeg,image/*;q=0.8")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending fetch request: %w", err)
	}
	defer resp.Body.Close()

	result := &FetchResult{
		Identifier: req.Identifier,
		StatusCode: resp.StatusCode,
	}
	if !result.Success() {
		return result, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image body: %w", err)
	}
	if int64(len(body)) > s.maxBytes {
		return nil, fmt.Errorf("%w of %d bytes", ErrTooLarge, s.maxBytes)
	}

	result.Body = body
	return result, nil
}
