package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/visualsearch/pkg/source"
)

// MockSource is a test source that records requests and returns
// configurable results.
type MockSource struct {
	mu sync.Mutex

	// Requests accumulates every identifier passed to Fetch.
	Requests []string

	// Result is returned by Fetch when Err is nil.
	Result *source.FetchResult

	// Err causes Fetch to fail.
	Err error
}

// NewMockSource creates a mock source that serves body with status 200.
func NewMockSource(body []byte) *MockSource {
	return &MockSource{
		Result: &source.FetchResult{StatusCode: 200, Body: body},
	}
}

func (m *MockSource) Fetch(_ context.Context, req source.FetchRequest) (*source.FetchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req.Identifier)
	if m.Err != nil {
		return nil, m.Err
	}

	res := *m.Result
	res.Identifier = req.Identifier
	return &res, nil
}

// Calls returns how many times Fetch ran.
func (m *MockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}
