// Package inmemory provides an index store held in process memory.
package inmemory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/papercomputeco/visualsearch/pkg/index"
	"github.com/papercomputeco/visualsearch/pkg/index/match"
)

type entry struct {
	id     string
	source []byte
}

// Store implements index.Store with a slice of documents in insertion order.
type Store struct {
	// mu guards docs
	mu sync.RWMutex

	docs []entry

	index string
	typ   string
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		index: index.DefaultIndex,
		typ:   index.DefaultType,
	}
}

// Store keeps a copy of document under a new id.
func (s *Store) Store(_ context.Context, document []byte) (*index.StoreResult, error) {
	if _, err := match.Decode(document); err != nil {
		return match.BadDocument(err), nil
	}

	id := uuid.NewString()
	src := make([]byte, len(document))
	copy(src, document)

	s.mu.Lock()
	s.docs = append(s.docs, entry{id: id, source: src})
	s.mu.Unlock()

	return match.Created(s.index, s.typ, id), nil
}

// Search scores every stored document against the query.
func (s *Store) Search(ctx context.Context, query []byte) (*index.SearchResult, error) {
	q, err := match.Parse(query)
	if err != nil {
		return match.BadQuery(err), nil
	}

	c := match.NewCollector(q, s.index, s.typ)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := c.Offer(e.id, e.source); err != nil {
			return nil, err
		}
	}

	return c.Result()
}

// Len reports the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
