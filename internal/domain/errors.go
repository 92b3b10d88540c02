package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrConflict      = errors.New("conflict")
)

// Import pipeline failure classes. Stage errors wrap one of these so the
// job manager and transports can tell them apart with errors.Is.
var (
	// ErrParse marks a malformed lexicon line or CSV row. Parsers count it
	// and move on; it never aborts a job.
	ErrParse = errors.New("parse error")
	// ErrConfiguration marks an import trigger that cannot run as configured.
	ErrConfiguration = errors.New("configuration error")
	// ErrInputIO marks a missing or unreadable input file.
	ErrInputIO = errors.New("input error")
	// ErrStore marks a persistence failure while writing dictionary records.
	ErrStore = errors.New("store error")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}
