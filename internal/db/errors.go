package db

import "errors"

// Sentinel errors for store operations.
var (
	ErrKeyNotFound   = errors.New("db: key not found")
	ErrIndexNotFound = errors.New("db: index not found")
	ErrBadRequest    = errors.New("db: request rejected")
)

// Op constants name the backend operation for error context.
const (
	OpPing          = "PING"
	OpGet           = "GET"
	OpSet           = "SET"
	OpSearch        = "_search"
	OpClusterHealth = "_cluster/health"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
