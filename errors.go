package strata

import (
	"errors"
	"fmt"
	"strings"

	sqld "github.com/stratadb/strata/dialect/sql"
	"github.com/stratadb/strata/schema"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotPersisted is returned when destroying a record whose primary
	// key is nil.
	ErrNotPersisted = errors.New("strata: record not persisted")

	// ErrNoModel is returned when a model cannot be inferred, e.g. a
	// bulk delete over an empty record list with no explicit model.
	ErrNoModel = errors.New("strata: no model given")

	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("strata: record not found")
)

// NotFoundError reports which table and key a lookup missed.
type NotFoundError struct {
	table string
	id    any
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("strata: %s not found (id=%v)", e.table, e.id)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(err, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// ValidationError is returned when one or more validators reject a
// record. No statement reaches the adapter; the record travels with the
// error so callers can inspect or correct it.
type ValidationError struct {
	// Record is the record the pipeline last threaded, unsaved.
	Record schema.Record
	// Reasons are the accumulated human-readable failure reasons, in
	// reverse validator order (last validator's reasons first).
	Reasons []string
}

// Error returns the error string.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("strata: validation failed: %s", strings.Join(e.Reasons, "; "))
}

// NewValidationError returns a new ValidationError for the record.
func NewValidationError(rec schema.Record, reasons []string) *ValidationError {
	return &ValidationError{Record: rec, Reasons: reasons}
}

// IsValidationError returns true if the error is a ValidationError.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ValidationError
	return errors.As(err, &e)
}

// AdapterError wraps a driver or connection level failure surfaced by
// the adapter. It is never retried.
type AdapterError struct {
	// Op is the operation that failed ("create", "update", "destroy",
	// "destroy_all").
	Op string
	// Err is the underlying adapter error.
	Err error
}

// Error returns the error string.
func (e *AdapterError) Error() string {
	return fmt.Sprintf("strata: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *AdapterError) Unwrap() error {
	return e.Err
}

// NewAdapterError returns a new AdapterError for the given operation.
func NewAdapterError(op string, err error) *AdapterError {
	return &AdapterError{Op: op, Err: err}
}

// IsAdapterError returns true if the error is an AdapterError.
func IsAdapterError(err error) bool {
	if err == nil {
		return false
	}
	var e *AdapterError
	return errors.As(err, &e)
}

// IsConstraintError returns true if the error wraps a database
// constraint violation classified by the adapter.
func IsConstraintError(err error) bool {
	return sqld.IsConstraintError(err)
}
