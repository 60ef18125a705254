// Package match evaluates similarity queries against stored documents for the
// index backends that have no query engine of their own.
//
// It understands the subset of the Elasticsearch query DSL that similarity
// search produces: a bool query of should clauses, each a match (optionally
// wrapped in constant_score), with minimum_should_match, plus match_all,
// from and size. Every satisfied clause adds its boost (1.0 by default) to the
// document's score.
package match

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultSize is the number of hits returned when the query sets no size.
const DefaultSize = 10

// ErrParse is wrapped by every query parsing failure.
var ErrParse = errors.New("parsing query")

// Clause tests one document field for equality.
type Clause struct {
	Field string
	Value any
	Boost float64
}

// Query is a parsed search body.
type Query struct {
	// All is set for match_all queries, which score every document 1.0.
	All bool

	Clauses            []Clause
	MinimumShouldMatch int
	From               int
	Size               int
}

type body struct {
	Query *queryNode `json:"query"`
	From  *int       `json:"from"`
	Size  *int       `json:"size"`
}

type queryNode struct {
	Bool          *boolNode                  `json:"bool"`
	MatchAll      *json.RawMessage           `json:"match_all"`
	Match         map[string]json.RawMessage `json:"match"`
	Term          map[string]json.RawMessage `json:"term"`
	ConstantScore *constantScoreNode         `json:"constant_score"`
}

type boolNode struct {
	MinimumShouldMatch json.RawMessage `json:"minimum_should_match"`
	Should             []queryNode     `json:"should"`
}

type constantScoreNode struct {
	Query  *queryNode `json:"query"`
	Filter *queryNode `json:"filter"`
	Boost  *float64   `json:"boost"`
}

// Parse reads a search body. An empty body or query is match_all.
func Parse(data []byte) (*Query, error) {
	q := &Query{Size: DefaultSize}

	if len(bytes.TrimSpace(data)) == 0 {
		q.All = true
		return q, nil
	}

	var b body
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	if b.From != nil {
		if *b.From < 0 {
			return nil, fmt.Errorf("%w: from must not be negative", ErrParse)
		}
		q.From = *b.From
	}
	if b.Size != nil {
		if *b.Size < 0 {
			return nil, fmt.Errorf("%w: size must not be negative", ErrParse)
		}
		q.Size = *b.Size
	}

	switch {
	case b.Query == nil, b.Query.MatchAll != nil:
		q.All = true
		return q, nil

	case b.Query.Bool != nil:
		if err := q.parseBool(b.Query.Bool); err != nil {
			return nil, err
		}
		return q, nil

	default:
		// A lone leaf clause must match.
		c, err := parseLeaf(b.Query, 1)
		if err != nil {
			return nil, err
		}
		q.Clauses = []Clause{c}
		q.MinimumShouldMatch = 1
		return q, nil
	}
}

func (q *Query) parseBool(b *boolNode) error {
	q.Clauses = make([]Clause, 0, len(b.Should))
	for _, node := range b.Should {
		c, err := parseLeaf(&node, 1)
		if err != nil {
			return err
		}
		q.Clauses = append(q.Clauses, c)
	}

	msm, err := minimumShouldMatch(b.MinimumShouldMatch, len(q.Clauses))
	if err != nil {
		return err
	}
	q.MinimumShouldMatch = msm
	return nil
}

func parseLeaf(node *queryNode, boost float64) (Clause, error) {
	switch {
	case node.ConstantScore != nil:
		cs := node.ConstantScore
		inner := cs.Query
		if inner == nil {
			inner = cs.Filter
		}
		if inner == nil {
			return Clause{}, fmt.Errorf("%w: constant_score needs a query or filter", ErrParse)
		}
		if cs.Boost != nil {
			boost = *cs.Boost
		}
		return parseLeaf(inner, boost)

	case len(node.Match) > 0:
		return parseField("match", node.Match, boost)

	case len(node.Term) > 0:
		return parseField("term", node.Term, boost)

	default:
		return Clause{}, fmt.Errorf("%w: unsupported clause", ErrParse)
	}
}

func parseField(kind string, fields map[string]json.RawMessage, boost float64) (Clause, error) {
	if len(fields) != 1 {
		return Clause{}, fmt.Errorf("%w: %s takes exactly one field", ErrParse, kind)
	}

	for field, raw := range fields {
		value, err := decodeValue(raw)
		if err != nil {
			return Clause{}, fmt.Errorf("%w: %s on %s: %v", ErrParse, kind, field, err)
		}
		return Clause{Field: field, Value: value, Boost: boost}, nil
	}
	return Clause{}, nil
}

// decodeValue accepts a scalar or the long form {"query": scalar}.
func decodeValue(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	if obj, ok := v.(map[string]any); ok {
		inner, ok := obj["query"]
		if !ok {
			inner, ok = obj["value"]
		}
		if !ok {
			return nil, errors.New("object form needs a query")
		}
		v = inner
	}

	switch v.(type) {
	case bool, string, json.Number:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported value %v", v)
	}
}

// minimumShouldMatch resolves an integer, an integer string, a negative count
// (clauses that may be missed) or a percentage against n clauses. Without a
// value at least one clause must match.
func minimumShouldMatch(raw json.RawMessage, n int) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return min(1, n), nil
	}

	var spec string
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		spec = num.String()
	} else if err := json.Unmarshal(raw, &spec); err != nil {
		return 0, fmt.Errorf("%w: minimum_should_match: %v", ErrParse, err)
	}
	spec = strings.TrimSpace(spec)

	if pct, ok := strings.CutSuffix(spec, "%"); ok {
		p, err := strconv.ParseFloat(pct, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: minimum_should_match %q", ErrParse, spec)
		}
		count := int(math.Floor(float64(n) * math.Abs(p) / 100))
		if p < 0 {
			count = n - count
		}
		return clamp(count, n), nil
	}

	v, err := strconv.Atoi(spec)
	if err != nil {
		return 0, fmt.Errorf("%w: minimum_should_match %q", ErrParse, spec)
	}
	if v < 0 {
		v = max(0, n+v)
	}
	return v, nil
}

func clamp(v, n int) int {
	return max(0, min(v, n))
}
