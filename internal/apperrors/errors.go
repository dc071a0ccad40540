// Package apperrors defines the error taxonomy shared by the authentication
// gate and the media ingestion pipeline. Handlers translate these errors into
// the uniform response envelope; nothing below the HTTP layer writes responses.
package apperrors

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated indicates a missing, malformed, or expired credential, or
// a credential whose backing identity record no longer exists.
var ErrUnauthenticated = errors.New("unauthenticated")

// ForbiddenError indicates an authenticated caller whose role does not satisfy
// the endpoint's requirement. The reason is preserved for diagnostics.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return e.Reason
}

// Forbidden constructs a ForbiddenError with the provided reason.
func Forbidden(reason string) *ForbiddenError {
	return &ForbiddenError{Reason: reason}
}

// ValidationKind enumerates the per-file admission failure modes.
type ValidationKind string

const (
	UnsupportedType      ValidationKind = "unsupported_type"
	UnsupportedExtension ValidationKind = "unsupported_extension"
	SizeExceeded         ValidationKind = "size_exceeded"
)

// ValidationError reports why a single upload candidate was rejected. It is
// surfaced per file, never aggregated across a batch.
type ValidationError struct {
	Kind     ValidationKind
	FileName string
	Message  string
	// Limit carries the applicable size ceiling in bytes for SizeExceeded.
	Limit int64
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError indicates a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Entity, e.ID)
}

// NotFound constructs a NotFoundError for the given entity and identifier.
func NotFound(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// PersistenceError wraps a rejected write from the underlying store. The
// original cause is retained for diagnostics and never silently swallowed.
type PersistenceError struct {
	Op    string
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// Persistence constructs a PersistenceError for the named operation.
func Persistence(op string, cause error) *PersistenceError {
	return &PersistenceError{Op: op, Cause: cause}
}
