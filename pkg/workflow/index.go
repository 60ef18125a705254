package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/visualsearch/pkg/eventstream"
	"github.com/papercomputeco/visualsearch/pkg/index"
	"github.com/papercomputeco/visualsearch/pkg/processed"
)

// IndexRequest names the image to index. ImageURL takes precedence over
// Image, which holds encoded JPEG bytes supplied directly.
type IndexRequest struct {
	ImageURL string
	Image    []byte
}

// Indexed is a successfully stored image.
type Indexed struct {
	// ID is the identifier the index assigned to the document.
	ID    string
	Image *processed.Image
}

// Indexer runs the index workflow.
type Indexer struct {
	config *Config
	logger *slog.Logger
}

// NewIndexer creates an Indexer.
func NewIndexer(c *Config) (*Indexer, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &Indexer{
		config: c,
		logger: c.Logger.With("workflow", "index"),
	}, nil
}

// Index fetches, fingerprints, and stores one image. Failures are *Error.
func (x *Indexer) Index(ctx context.Context, req IndexRequest) (*Indexed, error) {
	out, werr := x.run(ctx, req)
	if werr != nil {
		logFailure(x.logger, "index failed", werr)
		return nil, werr
	}

	x.logger.Info("image indexed",
		"id", out.ID,
		"source", out.Image.Source(),
		"dhash", out.Image.Fingerprint().String(),
	)
	x.publish(ctx, out)
	return out, nil
}

func (x *Indexer) run(ctx context.Context, req IndexRequest) (*Indexed, *Error) {
	res, werr := acquire(ctx, x.config.Source, req.ImageURL, req.Image)
	if werr != nil {
		return nil, werr
	}

	img, werr := process(res)
	if werr != nil {
		return nil, werr
	}

	doc, err := img.Marshal()
	if err != nil {
		return nil, internal(Serialization, Serializing, "Could not serialize image: ", err)
	}

	stored, err := x.config.Store.Store(ctx, doc)
	if err != nil {
		return nil, internal(UpstreamStore, Storing, "storing image failed: ", err)
	}
	if !index.Success(stored.StatusCode) {
		return nil, refused(UpstreamStore, Storing, stored.StatusCode, "Could not store image in index.")
	}

	id, err := assignedID(stored.Body)
	if err != nil {
		return nil, internal(UpstreamStore, Storing, "Could not read index response: ", err)
	}

	return &Indexed{ID: id, Image: img}, nil
}

func (x *Indexer) publish(ctx context.Context, out *Indexed) {
	if x.config.Publisher == nil {
		return
	}

	event := eventstream.NewImageIndexedEvent(out.ID, out.Image, x.config.Provider)
	if err := x.config.Publisher.PublishImageIndexed(ctx, event); err != nil {
		x.logger.Error("failed to publish image event",
			"id", out.ID,
			"event_id", event.EventID,
			"error", err,
		)
	}
}

// assignedID reads the "_id" field of a store reply.
func assignedID(body []byte) (string, error) {
	var reply struct {
		ID *string `json:"_id"`
	}
	if err := json.Unmarshal(body, &reply); err != nil {
		return "", fmt.Errorf("parsing store reply: %w", err)
	}
	if reply.ID == nil || *reply.ID == "" {
		return "", errors.New("store reply has no _id")
	}
	return *reply.ID, nil
}
