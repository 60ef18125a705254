package workflow

import (
	"fmt"
	"net/http"
)

// Kind classifies a workflow failure.
type Kind int

const (
	// ClientInput is a malformed or incomplete request.
	ClientInput Kind = iota

	// UpstreamFetch is a fetch that failed or returned a non-success status.
	UpstreamFetch

	// Decode is a payload that is not a readable JPEG.
	Decode

	// Serialization is a document or query that could not be encoded.
	Serialization

	// UpstreamStore is a store call that failed or was refused.
	UpstreamStore

	// UpstreamSearch is a search call that failed or was refused.
	UpstreamSearch
)

var kindNames = [...]string{
	ClientInput:    "client_input",
	UpstreamFetch:  "upstream_fetch",
	Decode:         "decode",
	Serialization:  "serialization",
	UpstreamStore:  "upstream_store",
	UpstreamSearch: "upstream_search",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Error is a failed workflow. StatusCode and Message are safe to show to
// callers; Err holds the underlying cause, if any.
type Error struct {
	Kind       Kind
	Stage      Stage
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func missingSource() *Error {
	return &Error{
		Kind:       ClientInput,
		Stage:      AwaitingSource,
		StatusCode: http.StatusBadRequest,
		Message:    "imageUrl was not specified in request.",
	}
}

// refused is a collaborator reply outside the success class. Its status is
// relayed to the caller unchanged.
func refused(kind Kind, stage Stage, status int, message string) *Error {
	return &Error{
		Kind:       kind,
		Stage:      stage,
		StatusCode: status,
		Message:    message,
	}
}

// internal is a failure with a cause, reported as a server error.
func internal(kind Kind, stage Stage, prefix string, err error) *Error {
	return &Error{
		Kind:       kind,
		Stage:      stage,
		StatusCode: http.StatusInternalServerError,
		Message:    prefix + err.Error(),
		Err:        err,
	}
}
