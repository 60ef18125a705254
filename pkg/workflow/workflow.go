// Package workflow runs the index and search pipelines: fetch an image,
// decode it, fingerprint it, then store a document or query for similar ones.
//
// Every failure is returned as a *Error naming the stage it stopped at. No
// stage runs after a failure and nothing is retried.
package workflow

import (
	"context"
	"errors"
	"log/slog"

	"github.com/papercomputeco/visualsearch/pkg/dhash"
	"github.com/papercomputeco/visualsearch/pkg/eventstream"
	"github.com/papercomputeco/visualsearch/pkg/index"
	"github.com/papercomputeco/visualsearch/pkg/picture"
	"github.com/papercomputeco/visualsearch/pkg/processed"
	"github.com/papercomputeco/visualsearch/pkg/source"
)

// Config holds the collaborators shared by both workflows.
type Config struct {
	// Source fetches images by URL.
	Source source.Source

	// Store persists documents and answers queries.
	Store index.Store

	// Publisher is notified after each stored image. Optional.
	Publisher eventstream.Publisher

	// Provider names the index backend in published events.
	Provider string

	// Logger is the provided slog logger.
	Logger *slog.Logger
}

func (c *Config) validate() error {
	if c.Source == nil {
		return errors.New("image source is required")
	}
	if c.Store == nil {
		return errors.New("index store is required")
	}
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// acquire resolves the image bytes. A URL is fetched; otherwise inline bytes
// are used when present.
func acquire(ctx context.Context, src source.Source, imageURL string, inline []byte) (*source.FetchResult, *Error) {
	if imageURL == "" {
		if len(inline) > 0 {
			return source.Inline(inline), nil
		}
		return nil, missingSource()
	}

	res, err := src.Fetch(ctx, source.FetchRequest{Identifier: imageURL})
	if err != nil {
		return nil, internal(UpstreamFetch, Fetching, "fetching image failed: ", err)
	}
	if !res.Success() {
		return nil, refused(UpstreamFetch, Fetching, res.StatusCode, "Could not fetch image.")
	}
	if res.Identifier == "" {
		res.Identifier = imageURL
	}
	return res, nil
}

// process decodes and fingerprints a fetched image and seals the result.
func process(res *source.FetchResult) (*processed.Image, *Error) {
	pic, err := picture.Decode(res.Body)
	if err != nil {
		return nil, internal(Decode, Decoding, "Could not process image: ", err)
	}

	fp := dhash.Compute(pic.Image)

	img, err := processed.New(res.Identifier, pic.Size, pic.PixelCount(), fp)
	if err != nil {
		return nil, internal(Decode, Hashing, "Could not process image: ", err)
	}
	return img, nil
}

func logFailure(logger *slog.Logger, msg string, werr *Error) {
	attrs := []any{
		"stage", werr.Stage.String(),
		"kind", werr.Kind.String(),
		"status", werr.StatusCode,
	}
	if werr.Err != nil {
		attrs = append(attrs, "error", werr.Err)
	}

	if werr.Kind == ClientInput {
		logger.Debug(msg, attrs...)
		return
	}
	logger.Warn(msg, attrs...)
}
