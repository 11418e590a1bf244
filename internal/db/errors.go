package db

import "errors"

// ErrKeyNotFound is returned by Get for a missing key.
var ErrKeyNotFound = errors.New("db: key not found")

// Op names for error context. Redis ops map to command names.
const (
	OpGet       = "GET"
	OpSet       = "SET"
	OpPing      = "PING"
	OpRead      = "read"
	OpWrite     = "write"
	OpRename    = "rename"
	OpGetObject = "GetObject"
	OpPutObject = "PutObject"
	OpBucket    = "BucketExists"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
