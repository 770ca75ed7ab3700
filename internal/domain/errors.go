package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput signals an empty or unusable search term.
	ErrMalformedInput = errors.New("malformed input")
	// ErrMissingSearchVector signals that vector scoring was required but no vector is available.
	ErrMissingSearchVector = errors.New("missing search vector")
	// ErrDimensionMismatch signals a vector whose length differs from the indexed field.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrUnresolvableFieldPath signals a highlight path that cannot be mapped onto a hit field.
	ErrUnresolvableFieldPath = errors.New("unresolvable field path")
	// ErrUpstreamUnavailable signals a failed ML or document store call.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrRequestTooLarge signals a page size above the configured maximum.
	ErrRequestTooLarge = errors.New("request size too large")
)

// Stage names the step of request processing an error was raised in.
type Stage string

// Processing stages.
const (
	StageNormalize Stage = "normalize"
	StageKeywords  Stage = "keywords"
	StageVector    Stage = "vector"
	StageQuery     Stage = "query"
	StageExecute   Stage = "execute"
	StageHighlight Stage = "highlight"
)

// Error carries the stage and field an error belongs to. Unwraps to the sentinel.
type Error struct {
	Stage Stage
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Stage, e.Err.Error())
	}
	return fmt.Sprintf("%s %s: %s", e.Stage, e.Field, e.Err.Error())
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with its stage and field.
func NewError(stage Stage, field string, err error) error {
	return &Error{Stage: stage, Field: field, Err: err}
}
