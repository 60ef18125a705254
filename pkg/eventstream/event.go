package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/visualsearch/pkg/processed"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeImageIndexed is emitted after an image document is stored.
	EventTypeImageIndexed = "visualsearch.image.indexed"
)

// ImageIndexedEvent is a transport-neutral event payload for a stored image.
type ImageIndexedEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Image         ImageMeta   `json:"image"`
	Index         IndexTarget `json:"index"`
}

// ImageMeta describes the stored image.
type ImageMeta struct {
	ID            string `json:"id"`
	Source        string `json:"source"`
	ReceivedBytes int    `json:"received_bytes"`
	NumPixels     int    `json:"num_pixels"`
	DHash         string `json:"dhash"`
}

// IndexTarget names the backend that accepted the document.
type IndexTarget struct {
	Provider string `json:"provider,omitempty"`
}

// NewImageIndexedEvent builds the event for img stored under id.
func NewImageIndexedEvent(id string, img *processed.Image, provider string) *ImageIndexedEvent {
	return &ImageIndexedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeImageIndexed,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Image: ImageMeta{
			ID:            id,
			Source:        img.Source(),
			ReceivedBytes: img.ReceivedBytes(),
			NumPixels:     img.PixelCount(),
			DHash:         img.Fingerprint().String(),
		},
		Index: IndexTarget{Provider: provider},
	}
}
