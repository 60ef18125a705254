// Package query builds similarity queries for fingerprinted images.
//
// A query holds one constant-score clause per fingerprint bit. Each clause
// matches documents whose stored bit equals the query image's bit and is worth
// one point, so a document's score is the number of equal bits. The
// minimum_should_match threshold decides which documents are hits.
package query

import (
	"encoding/json"

	"github.com/papercomputeco/visualsearch/pkg/dhash"
)

// FieldPrefix is the path of the fingerprint object inside a stored document.
const FieldPrefix = "dHash."

// Query is the top-level search body.
type Query struct {
	Query Clause `json:"query"`
}

// Clause wraps the bool query.
type Clause struct {
	Bool *Bool `json:"bool"`
}

// Bool combines should clauses with a match threshold.
type Bool struct {
	MinimumShouldMatch int      `json:"minimum_should_match"`
	Should             []Should `json:"should"`
}

// Should is one optional clause.
type Should struct {
	ConstantScore ConstantScore `json:"constant_score"`
}

// ConstantScore scores its inner query as a flat 1.0.
type ConstantScore struct {
	Query Match `json:"query"`
}

// Match tests a single field for equality.
type Match struct {
	Match map[string]bool `json:"match"`
}

// Build returns the query matching documents that share at least
// minimumMatches bits with fp. The threshold is taken as given.
func Build(fp dhash.Fingerprint, minimumMatches int) *Query {
	should := make([]Should, dhash.Bits)
	for i := range should {
		should[i] = Should{
			ConstantScore: ConstantScore{
				Query: Match{
					Match: map[string]bool{Field(i): fp.Bit(i)},
				},
			},
		}
	}

	return &Query{
		Query: Clause{
			Bool: &Bool{
				MinimumShouldMatch: minimumMatches,
				Should:             should,
			},
		},
	}
}

// Field returns the document path of bit i, e.g. "dHash.dh_3".
func Field(i int) string {
	return FieldPrefix + dhash.Key(i)
}

// Marshal serializes the query.
func (q *Query) Marshal() ([]byte, error) {
	return json.Marshal(q)
}
