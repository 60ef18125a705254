package workflow

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/papercomputeco/visualsearch/pkg/index"
	"github.com/papercomputeco/visualsearch/pkg/processed"
	"github.com/papercomputeco/visualsearch/pkg/query"
)

// SearchRequest names the image to search for and how many fingerprint bits
// a stored document must share with it.
type SearchRequest struct {
	ImageURL           string
	MinimumShouldMatch int
}

// Found is a completed search. Payload is the index reply, unmodified.
type Found struct {
	Payload json.RawMessage
	Image   *processed.Image
}

// Searcher runs the search workflow.
type Searcher struct {
	config *Config
	logger *slog.Logger
}

// NewSearcher creates a Searcher.
func NewSearcher(c *Config) (*Searcher, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &Searcher{
		config: c,
		logger: c.Logger.With("workflow", "search"),
	}, nil
}

// Search fetches and fingerprints one image and queries the index for
// similar documents. Failures are *Error.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*Found, error) {
	out, werr := s.run(ctx, req)
	if werr != nil {
		logFailure(s.logger, "search failed", werr)
		return nil, werr
	}

	s.logger.Debug("search complete",
		"source", out.Image.Source(),
		"dhash", out.Image.Fingerprint().String(),
		"minimum_should_match", req.MinimumShouldMatch,
	)
	return out, nil
}

func (s *Searcher) run(ctx context.Context, req SearchRequest) (*Found, *Error) {
	res, werr := acquire(ctx, s.config.Source, req.ImageURL, nil)
	if werr != nil {
		return nil, werr
	}

	img, werr := process(res)
	if werr != nil {
		return nil, werr
	}

	body, err := query.Build(img.Fingerprint(), req.MinimumShouldMatch).Marshal()
	if err != nil {
		return nil, internal(Serialization, QueryBuilding, "Could not build query: ", err)
	}

	found, err := s.config.Store.Search(ctx, body)
	if err != nil {
		return nil, internal(UpstreamSearch, Querying, "searching index failed: ", err)
	}
	if !index.Success(found.StatusCode) {
		return nil, refused(UpstreamSearch, Querying, found.StatusCode, "Could not search index.")
	}

	return &Found{Payload: json.RawMessage(found.Payload), Image: img}, nil
}
