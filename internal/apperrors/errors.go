// Package apperrors holds the error taxonomy shared by the stores, the order
// lifecycle and the HTTP layer.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a referenced order, customer, product or category is absent.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates input rejected before any write.
	ErrValidation = errors.New("validation failed")
	// ErrDataIntegrity indicates persisted data references something that no longer exists.
	ErrDataIntegrity = errors.New("data integrity violation")
	// ErrConflict indicates a uniqueness or concurrent-modification conflict.
	ErrConflict = errors.New("conflict")
)

// NotFoundError names the kind and id of the missing record.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound returns a NotFoundError for kind/id.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// ValidationError describes one rejected field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid returns a ValidationError for field.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// DataIntegrityError reports a line item whose product no longer exists.
type DataIntegrityError struct {
	OrderID   string
	ProductID string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("order %s references missing product %s", e.OrderID, e.ProductID)
}

func (e *DataIntegrityError) Is(target error) bool { return target == ErrDataIntegrity }

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidation reports whether err is or wraps ErrValidation.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
