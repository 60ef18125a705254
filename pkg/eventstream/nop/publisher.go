package nop

import (
	"context"

	"github.com/papercomputeco/visualsearch/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishImageIndexed validates input and otherwise does nothing.
func (p *Publisher) PublishImageIndexed(_ context.Context, event *eventstream.ImageIndexedEvent) error {
	if event == nil {
		return eventstream.ErrNilImageEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
