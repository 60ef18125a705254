package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/visualsearch/pkg/eventstream"
)

// MockPublisher is a test eventstream publisher that records events.
type MockPublisher struct {
	mu     sync.Mutex
	events []*eventstream.ImageIndexedEvent

	// Err causes PublishImageIndexed to fail after recording the event.
	Err error
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishImageIndexed(_ context.Context, event *eventstream.ImageIndexedEvent) error {
	if event == nil {
		return eventstream.ErrNilImageEvent
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.Err
}

func (m *MockPublisher) Close() error {
	return nil
}

// Events returns the recorded events.
func (m *MockPublisher) Events() []*eventstream.ImageIndexedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*eventstream.ImageIndexedEvent(nil), m.events...)
}
