package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when the acting user lacks a capability.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInUse marks deletions blocked by existing references
	// (e.g. a question already answered by an assessment).
	ErrInUse = errors.New("in use")
)

// ValidationError carries field-level messages back to the caller.
// It unwraps to ErrInvalidArgument so callers can branch on the sentinel.
type ValidationError struct {
	Fields map[string]string
}

func NewValidation() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

func (e *ValidationError) Add(field, msg string) *ValidationError {
	e.Fields[field] = msg
	return e
}

func (e *ValidationError) Ok() bool { return len(e.Fields) == 0 }

// Err returns nil when no field failed, the error itself otherwise.
func (e *ValidationError) Err() error {
	if e.Ok() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidArgument }

// Validation builds a single-field validation error.
func Validation(field, msg string) *ValidationError {
	return NewValidation().Add(field, msg)
}
