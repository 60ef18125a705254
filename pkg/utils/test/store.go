package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/visualsearch/pkg/index"
)

// MockStore is a test index store that records documents and queries and
// returns configurable results.
type MockStore struct {
	mu sync.Mutex

	// Documents accumulates every body passed to Store.
	Documents [][]byte

	// Queries accumulates every body passed to Search.
	Queries [][]byte

	StoreResult  *index.StoreResult
	SearchResult *index.SearchResult

	// StoreErr and SearchErr cause the matching call to fail.
	StoreErr  error
	SearchErr error

	Closed bool
}

// NewMockStore creates a mock store that accepts documents as id "123" and
// answers searches with an empty hit list.
func NewMockStore() *MockStore {
	return &MockStore{
		StoreResult: &index.StoreResult{
			StatusCode: 201,
			Body:       []byte(`{"_index":"images","_type":"processed_images","_id":"123","_version":1,"result":"created"}`),
		},
		SearchResult: &index.SearchResult{
			StatusCode: 200,
			Payload:    []byte(`{"took":0,"timed_out":false,"hits":{"total":0,"max_score":null,"hits":[]}}`),
		},
	}
}

func (m *MockStore) Store(_ context.Context, document []byte) (*index.StoreResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Documents = append(m.Documents, document)
	if m.StoreErr != nil {
		return nil, m.StoreErr
	}
	return m.StoreResult, nil
}

func (m *MockStore) Search(_ context.Context, query []byte) (*index.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Queries = append(m.Queries, query)
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	return m.SearchResult, nil
}

func (m *MockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// StoreCalls returns how many times Store ran.
func (m *MockStore) StoreCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Documents)
}

// SearchCalls returns how many times Search ran.
func (m *MockStore) SearchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Queries)
}
