// Package errors consolidates error definitions for the gradebook service.
//
// This package provides:
// - Sentinel errors for all error conditions
// - Error category checking functions
// - HTTP status mapping for the API surface
// - Error wrapping utilities
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ============================================================================
// Sentinel errors for common conditions
// ============================================================================

var (
	// Record-level conditions
	ErrNotFound    = errors.New("record not found")
	ErrDuplicateID = errors.New("duplicate identifier")

	// Storage conditions. A failed write leaves the backing file in an
	// undefined state; the current request is fatal and must not retry.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Aggregation conditions
	ErrFieldParse = errors.New("field parse error")
	ErrNoRecords  = errors.New("no records to process")
	ErrNoResults  = errors.New("no results computed")

	// Validation errors
	ErrInvalidName   = errors.New("invalid name")
	ErrMissingField  = errors.New("missing required field")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ============================================================================
// FieldParseError
// ============================================================================

// FieldParseError reports a single record whose numeric field could not be
// parsed during aggregation. Under the abort failure mode the first such
// error fails the entire run.
type FieldParseError struct {
	ID    string // record identifier
	Field string // offending field name
	Err   error  // underlying cause
}

// Error implements the error interface.
func (e *FieldParseError) Error() string {
	return fmt.Sprintf("record %q: field %q: %v", e.ID, e.Field, e.Err)
}

// Unwrap exposes both the ErrFieldParse sentinel and the underlying cause
// to errors.Is/errors.As.
func (e *FieldParseError) Unwrap() []error {
	return []error{ErrFieldParse, e.Err}
}

// ============================================================================
// Helper functions for error checking
// ============================================================================

// Is is a convenience wrapper for errors.Is
var Is = errors.Is

// As is a convenience wrapper for errors.As
var As = errors.As

// New is a convenience wrapper for errors.New
var New = errors.New

// IsNotFound returns true if err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicate returns true if err is a duplicate-identifier error.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateID)
}

// IsStorage returns true if err indicates the backing file was unusable.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}

// IsFieldParse returns true if err originated from a per-record parse failure.
func IsFieldParse(err error) bool {
	return errors.Is(err, ErrFieldParse)
}

// IsValidation returns true if err is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidName) ||
		errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidConfig)
}

// ============================================================================
// Error to HTTP status mapping
// ============================================================================

// HTTPStatus maps a service error to the HTTP status returned by the API.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsNotFound(err), Is(err, ErrNoRecords):
		return http.StatusNotFound
	case IsDuplicate(err):
		return http.StatusConflict
	case IsFieldParse(err):
		return http.StatusUnprocessableEntity
	case IsValidation(err):
		return http.StatusBadRequest
	case IsStorage(err):
		return http.StatusServiceUnavailable
	case Is(err, ErrNoResults):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// ============================================================================
// Error wrapping utilities
// ============================================================================

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ============================================================================
// Error constructors with context
// ============================================================================

// NewNotFound creates a not-found error naming the record.
func NewNotFound(id string) error {
	return fmt.Errorf("record %q: %w", id, ErrNotFound)
}

// NewDuplicate creates a duplicate-identifier error naming the record.
func NewDuplicate(id string) error {
	return fmt.Errorf("record %q: %w", id, ErrDuplicateID)
}

// NewStorage wraps a file error as a storage-unavailable error.
func NewStorage(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, ErrStorageUnavailable)
}

// NewValidation creates a validation error with context.
func NewValidation(field, reason string) error {
	return fmt.Errorf("invalid %s: %s: %w", field, reason, ErrInvalidConfig)
}

// NewMissingField creates a missing field error.
func NewMissingField(field string) error {
	return fmt.Errorf("%s: %w", field, ErrMissingField)
}

// ============================================================================
// Validation Errors Collection
// ============================================================================

// ValidationErrors collects multiple validation errors.
type ValidationErrors struct {
	Errors []error
}

// NewValidationErrors creates a new ValidationErrors collector.
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{}
}

// Add adds an error to the collection.
func (v *ValidationErrors) Add(err error) {
	if err != nil {
		v.Errors = append(v.Errors, err)
	}
}

// AddField adds a field validation error.
func (v *ValidationErrors) AddField(field, reason string) {
	v.Errors = append(v.Errors, NewValidation(field, reason))
}

// HasErrors returns true if there are any errors.
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Error implements the error interface.
func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return ""
	}
	if len(v.Errors) == 1 {
		return v.Errors[0].Error()
	}

	msg := fmt.Sprintf("validation failed with %d errors:", len(v.Errors))
	for _, err := range v.Errors {
		msg += "\n  - " + err.Error()
	}
	return msg
}

// Err returns nil if no errors, otherwise returns the ValidationErrors.
func (v *ValidationErrors) Err() error {
	if len(v.Errors) == 0 {
		return nil
	}
	return v
}

// Unwrap returns the first error for errors.Is/As support.
func (v *ValidationErrors) Unwrap() error {
	if len(v.Errors) == 0 {
		return nil
	}
	return v.Errors[0]
}
