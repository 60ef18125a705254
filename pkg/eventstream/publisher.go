package eventstream

import "context"

// Publisher publishes image events to an event stream backend.
type Publisher interface {
	PublishImageIndexed(ctx context.Context, event *ImageIndexedEvent) error
	Close() error
}
