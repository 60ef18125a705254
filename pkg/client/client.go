// Package client calls a running visualsearch API server.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/papercomputeco/visualsearch/pkg/index/match"
)

// Client talks to the HTTP API at a fixed target.
type Client struct {
	target     *url.URL
	httpClient *http.Client
}

// IndexRequest names the image to index. ImageURL wins when both are set.
type IndexRequest struct {
	ImageURL string
	Image    []byte
}

// SearchRequest names the image to search for. A nil MinimumShouldMatch
// leaves the threshold to the server.
type SearchRequest struct {
	ImageURL           string
	MinimumShouldMatch *int
}

// APIError is a non-success reply from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// New creates a client for the API at apiTarget. A nil httpClient uses
// http.DefaultClient.
func New(apiTarget string, httpClient *http.Client) (*Client, error) {
	target, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid API target URL: %q", apiTarget)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{target: target, httpClient: httpClient}, nil
}

// Index stores one image and returns the id assigned by the index.
func (c *Client) Index(ctx context.Context, req IndexRequest) (string, error) {
	body := map[string]string{}
	if req.ImageURL != "" {
		body["imageUrl"] = req.ImageURL
	} else if len(req.Image) > 0 {
		body["image"] = base64.StdEncoding.EncodeToString(req.Image)
	}

	data, err := c.post(ctx, "/image", body, http.StatusCreated)
	if err != nil {
		return "", fmt.Errorf("index request failed: %w", err)
	}

	var created struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &created); err != nil {
		return "", fmt.Errorf("failed to parse index response: %w", err)
	}
	return created.ID, nil
}

// Search returns the raw index reply for images similar to the one at the
// given URL.
func (c *Client) Search(ctx context.Context, req SearchRequest) (json.RawMessage, error) {
	body := map[string]any{"imageUrl": req.ImageURL}
	if req.MinimumShouldMatch != nil {
		body["minimumShouldMatch"] = *req.MinimumShouldMatch
	}

	data, err := c.post(ctx, "/image_search", body, http.StatusOK)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	return data, nil
}

// SearchHits runs Search and parses the reply.
func (c *Client) SearchHits(ctx context.Context, req SearchRequest) (*match.Response, error) {
	data, err := c.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	var reply match.Response
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}
	return &reply, nil
}

// Ping checks that the server is up.
func (c *Client) Ping(ctx context.Context) error {
	u := c.endpoint("/ping")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating ping request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to visualsearch API at %s: %w", c.target, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
	}
	return nil
}

func (c *Client) endpoint(path string) string {
	return c.target.JoinPath(path).String()
}

func (c *Client) post(ctx context.Context, path string, body any, want int) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to visualsearch API at %s: %w", c.target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != want {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}
	return data, nil
}

// errorMessage reads the message field of an error body, falling back to the
// body itself.
func errorMessage(data []byte) string {
	var er struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &er); err == nil && er.Message != "" {
		return er.Message
	}
	return string(data)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}
