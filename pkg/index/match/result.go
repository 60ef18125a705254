package match

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/papercomputeco/visualsearch/pkg/index"
)

// Response is an Elasticsearch-shaped search reply.
type Response struct {
	Took     int64 `json:"took"`
	TimedOut bool  `json:"timed_out"`
	Hits     Hits  `json:"hits"`
}

// Hits holds the total hit count and the requested page.
type Hits struct {
	Total    TotalHits `json:"total"`
	MaxScore *float64  `json:"max_score"`
	Hits     []Hit     `json:"hits"`
}

// TotalHits is the number of documents that matched. Replies from
// Elasticsearch 7 and later carry it as {"value": n, "relation": "eq"}; both
// that and the bare count decode.
type TotalHits int

// UnmarshalJSON accepts a count or the object form.
func (t *TotalHits) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*t = TotalHits(n)
		return nil
	}

	var obj struct {
		Value *int `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decoding hits total: %w", err)
	}
	if obj.Value == nil {
		return fmt.Errorf("decoding hits total: missing value in %s", data)
	}
	*t = TotalHits(*obj.Value)
	return nil
}

// Hit is one matching document.
type Hit struct {
	Index  string          `json:"_index"`
	Type   string          `json:"_type"`
	ID     string          `json:"_id"`
	Score  float64         `json:"_score"`
	Source json.RawMessage `json:"_source"`
}

// Collector ranks documents offered in insertion order.
type Collector struct {
	query *Query
	index string
	typ   string
	start time.Time
	hits  []Hit
}

// NewCollector starts collecting hits for q. Index and typ label every hit.
func NewCollector(q *Query, index, typ string) *Collector {
	return &Collector{
		query: q,
		index: index,
		typ:   typ,
		start: time.Now(),
	}
}

// Offer scores a stored document and keeps it if it is a hit.
func (c *Collector) Offer(id string, source []byte) error {
	score, hit, err := c.query.ScoreSource(source)
	if err != nil {
		return fmt.Errorf("document %s: %w", id, err)
	}
	if !hit {
		return nil
	}

	c.hits = append(c.hits, Hit{
		Index:  c.index,
		Type:   c.typ,
		ID:     id,
		Score:  score,
		Source: json.RawMessage(source),
	})
	return nil
}

// Response sorts the hits by score, ties in offer order, and cuts the page.
func (c *Collector) Response() *Response {
	slices.SortStableFunc(c.hits, func(a, b Hit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	resp := &Response{
		Took: time.Since(c.start).Milliseconds(),
		Hits: Hits{
			Total: TotalHits(len(c.hits)),
			Hits:  []Hit{},
		},
	}

	if len(c.hits) > 0 {
		top := c.hits[0].Score
		resp.Hits.MaxScore = &top
	}

	from := min(c.query.From, len(c.hits))
	to := from + min(c.query.Size, len(c.hits)-from)
	resp.Hits.Hits = append(resp.Hits.Hits, c.hits[from:to]...)

	return resp
}

// Result renders the collected hits as a successful search result.
func (c *Collector) Result() (*index.SearchResult, error) {
	payload, err := json.Marshal(c.Response())
	if err != nil {
		return nil, fmt.Errorf("encoding search response: %w", err)
	}
	return &index.SearchResult{StatusCode: http.StatusOK, Payload: payload}, nil
}

// Created renders the reply to a successful document write.
func Created(indexName, typ, id string) *index.StoreResult {
	body, _ := json.Marshal(map[string]any{
		"_index":   indexName,
		"_type":    typ,
		"_id":      id,
		"_version": 1,
		"result":   "created",
	})
	return &index.StoreResult{StatusCode: http.StatusCreated, Body: body}
}

// Failure renders an Elasticsearch-style error body.
func Failure(status int, kind, reason string) []byte {
	body, _ := json.Marshal(map[string]any{
		"error": map[string]any{
			"type":   kind,
			"reason": reason,
		},
		"status": status,
	})
	return body
}

// StoreFailure is a failed write reply.
func StoreFailure(status int, kind, reason string) *index.StoreResult {
	return &index.StoreResult{StatusCode: status, Body: Failure(status, kind, reason)}
}

// SearchFailure is a failed search reply.
func SearchFailure(status int, kind, reason string) *index.SearchResult {
	return &index.SearchResult{StatusCode: status, Payload: Failure(status, kind, reason)}
}

// BadQuery is the reply to a query Parse rejects.
func BadQuery(err error) *index.SearchResult {
	return SearchFailure(http.StatusBadRequest, "parsing_exception", err.Error())
}

// BadDocument is the reply to a document that is not a JSON object.
func BadDocument(err error) *index.StoreResult {
	return StoreFailure(http.StatusBadRequest, "mapper_parsing_exception", err.Error())
}
