package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a program, template, session or ledger
	// entry does not exist or is not visible to the requesting user.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when an operation would break a uniqueness
	// rule, such as a second active program for one user.
	ErrConflict = errors.New("conflict")
	// ErrInvalidState is returned when an operation is not allowed in the
	// current state, or when a periodization plan is structurally malformed.
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation failed")

	// ErrStaleVersion is returned by stores when a conditional update lost
	// against a concurrent writer.
	ErrStaleVersion = errors.New("stale version")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
