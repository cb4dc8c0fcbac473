package services

import "fmt"

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

// ValidationFailedError wraps a data-access failure hit while validating a
// subject. No partial result accompanies it.
type ValidationFailedError struct {
	SubjectKind string
	Err         error
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("%s validation failed: %v", e.SubjectKind, e.Err)
}

func (e *ValidationFailedError) Unwrap() error { return e.Err }
