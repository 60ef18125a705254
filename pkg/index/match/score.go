package match

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Score evaluates the query against a decoded document. It returns the
// document's score and whether it is a hit.
func (q *Query) Score(doc map[string]any) (float64, bool) {
	if q.All {
		return 1, true
	}

	var score float64
	matched := 0
	for _, c := range q.Clauses {
		if equal(lookup(doc, c.Field), c.Value) {
			score += c.Boost
			matched++
		}
	}

	return score, matched >= q.MinimumShouldMatch
}

// ScoreSource decodes a JSON document and scores it.
func (q *Query) ScoreSource(source []byte) (float64, bool, error) {
	doc, err := Decode(source)
	if err != nil {
		return 0, false, err
	}
	score, hit := q.Score(doc)
	return score, hit, nil
}

// Decode reads a JSON document keeping numbers exact.
func Decode(source []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(source))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return doc, nil
}

// lookup resolves a dotted path such as "dHash.dh_3".
func lookup(doc map[string]any, path string) any {
	var cur any = doc
	for part := range strings.SplitSeq(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[part]
		if !ok {
			return nil
		}
	}
	return cur
}

func equal(stored, want any) bool {
	switch w := want.(type) {
	case bool:
		s, ok := stored.(bool)
		return ok && s == w

	case json.Number:
		return numberEqual(stored, w)

	case string:
		switch s := stored.(type) {
		case string:
			return strings.EqualFold(s, w)
		case bool:
			return strings.EqualFold(w, fmt.Sprint(s))
		case json.Number:
			return numberEqual(s, json.Number(w))
		}
	}
	return false
}

func numberEqual(stored any, want json.Number) bool {
	var s json.Number
	switch v := stored.(type) {
	case json.Number:
		s = v
	case float64:
		return fmt.Sprint(v) == want.String()
	default:
		return false
	}

	a, errA := s.Float64()
	b, errB := want.Float64()
	return errA == nil && errB == nil && a == b
}
