package workflow

import "fmt"

// Stage is a step of the index or search workflow. Both workflows share the
// stages up to Hashing.
type Stage int

const (
	AwaitingSource Stage = iota
	Fetching
	Decoding
	Hashing
	Serializing
	Storing
	QueryBuilding
	Querying
	Done
)

var stageNames = [...]string{
	AwaitingSource: "awaiting_source",
	Fetching:       "fetching",
	Decoding:       "decoding",
	Hashing:        "hashing",
	Serializing:    "serializing",
	Storing:        "storing",
	QueryBuilding:  "query_building",
	Querying:       "querying",
	Done:           "done",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}
