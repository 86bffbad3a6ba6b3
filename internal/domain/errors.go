package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling in handlers.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// ValidationError indicates malformed input or a structural rule violation
// (move-into-descendant, empty name). Never retried automatically.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string       { return e.Message }
func (e *ValidationError) StatusCode() int     { return http.StatusUnprocessableEntity }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError indicates a referenced folder/asset/parent does not exist or
// is not visible to the caller.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string       { return e.Message }
func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError represents a resource conflict: slug-uniqueness exhaustion or
// a race on a unique constraint during concurrent creation. Carries the
// conflicting resource so handlers can point the caller at it.
type ConflictError struct {
	Message      string
	ResourceType string // "folder" or "asset"
	ResourceID   int64  // ID of the existing/conflicting resource, 0 if unknown
}

func (e *ConflictError) Error() string       { return e.Message }
func (e *ConflictError) StatusCode() int     { return http.StatusConflict }
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }
