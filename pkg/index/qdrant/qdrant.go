// Package qdrant provides an index store backed by a Qdrant collection.
//
// Each document becomes a point whose vector holds the fingerprint bits and
// whose payload holds the document fields plus the verbatim source. Bit
// clauses are pushed down as a min_should filter; scoring and ranking happen
// locally so results match the other backends.
package qdrant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	qc "github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/visualsearch/pkg/dhash"
	"github.com/papercomputeco/visualsearch/pkg/index"
	"github.com/papercomputeco/visualsearch/pkg/index/match"
	"github.com/papercomputeco/visualsearch/pkg/processed"
)

const (
	// DefaultPort is Qdrant's gRPC port.
	DefaultPort = 6334

	// sourceField holds the stored document as received.
	sourceField = "_source"

	scrollPage uint32 = 256
)

// Config configures the Qdrant store.
type Config struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool

	// Collection defaults to index.DefaultType.
	Collection string
}

// Store implements index.Store on Qdrant.
type Store struct {
	client     *qc.Client
	collection string
	logger     *slog.Logger
}

// NewStore connects to Qdrant and creates the collection if it is missing.
func NewStore(ctx context.Context, c Config, logger *slog.Logger) (*Store, error) {
	if c.Host == "" {
		return nil, fmt.Errorf("qdrant host is required")
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Collection == "" {
		c.Collection = index.DefaultType
	}

	client, err := qc.NewClient(&qc.Config{
		Host:   c.Host,
		Port:   c.Port,
		APIKey: c.APIKey,
		UseTLS: c.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	s := &Store{
		client:     client,
		collection: c.Collection,
		logger:     logger,
	}

	if err := s.ensureCollection(ctx); err != nil {
		client.Close()
		return nil, err
	}

	logger.Info("connected to Qdrant",
		"host", c.Host,
		"port", c.Port,
		"collection", c.Collection,
	)

	return s, nil
}

func (s *Store) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("checking collection %q: %w", s.collection, err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qc.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qc.NewVectorsConfig(&qc.VectorParams{
			Size:     dhash.Bits,
			Distance: qc.Distance_Manhattan,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %q: %w", s.collection, err)
	}

	s.logger.Info("created qdrant collection", "collection", s.collection)
	return nil
}

// Store upserts document as a new point.
func (s *Store) Store(ctx context.Context, document []byte) (*index.StoreResult, error) {
	var fields map[string]any
	if err := json.Unmarshal(document, &fields); err != nil {
		return match.BadDocument(err), nil
	}

	// Time-ordered ids make scroll order follow insertion order.
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating point id: %w", err)
	}

	fields[sourceField] = string(document)
	payload, err := qc.TryValueMap(fields)
	if err != nil {
		return match.BadDocument(err), nil
	}

	wait := true
	_, err = s.client.Upsert(ctx, &qc.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points: []*qc.PointStruct{
			{
				Id:      qc.NewID(id.String()),
				Vectors: qc.NewVectors(bitVector(document)...),
				Payload: payload,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upserting point: %w", err)
	}

	return match.Created(index.DefaultIndex, s.collection, id.String()), nil
}

// Search scrolls the points passing the pushed-down filter and ranks them.
func (s *Store) Search(ctx context.Context, query []byte) (*index.SearchResult, error) {
	q, err := match.Parse(query)
	if err != nil {
		return match.BadQuery(err), nil
	}

	c := match.NewCollector(q, index.DefaultIndex, s.collection)
	filter := filterFor(q)

	var offset *qc.PointId
	for {
		resp, err := s.client.GetPointsClient().Scroll(ctx, &qc.ScrollPoints{
			CollectionName: s.collection,
			Filter:         filter,
			Offset:         offset,
			Limit:          qc.PtrOf(scrollPage),
			WithPayload:    qc.NewWithPayload(true),
		})
		if err != nil {
			return nil, fmt.Errorf("scrolling points: %w", err)
		}

		for _, point := range resp.GetResult() {
			source := point.GetPayload()[sourceField].GetStringValue()
			if err := c.Offer(point.GetId().GetUuid(), []byte(source)); err != nil {
				return nil, err
			}
		}

		offset = resp.GetNextPageOffset()
		if offset == nil {
			break
		}
	}

	return c.Result()
}

// Close closes the gRPC connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// filterFor pushes bit clauses down to Qdrant. Queries with other clauses,
// or that accept every document, are scored without a filter.
func filterFor(q *match.Query) *qc.Filter {
	if q.All || q.MinimumShouldMatch <= 0 || len(q.Clauses) == 0 {
		return nil
	}

	conds := make([]*qc.Condition, 0, len(q.Clauses))
	for _, c := range q.Clauses {
		v, ok := c.Value.(bool)
		if !ok {
			return nil
		}
		conds = append(conds, qc.NewMatchBool(c.Field, v))
	}

	return &qc.Filter{
		MinShould: &qc.MinShould{
			Conditions: conds,
			MinCount:   uint64(q.MinimumShouldMatch),
		},
	}
}

// bitVector maps the fingerprint of a document to 0/1 coordinates. Documents
// without a readable fingerprint get the zero vector.
func bitVector(document []byte) []float32 {
	vec := make([]float32, dhash.Bits)

	doc, err := processed.ParseDocument(document)
	if err != nil {
		return vec
	}
	for i := range vec {
		if doc.DHash.Bit(i) {
			vec[i] = 1
		}
	}
	return vec
}
