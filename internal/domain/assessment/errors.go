package assessment

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested assessment/entity does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError is fatal to the request: returned immediately, never
// retried. Field names the offending input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// PersistenceError wraps a graph/cache/history write failure after scoring.
// It is logged and surfaced via partial_success; it never rolls back the
// computed score.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
