// Package apperr defines the error taxonomy shared by the store, service and
// HTTP layers.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError represents bad input shape or values
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError represents an unknown record id or name
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %s not found", e.Kind, e.ID)
}

// StoreUnavailableError represents a connectivity or driver failure
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// Invalid builds a ValidationError
func Invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a NotFoundError
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// Unavailable wraps a driver error. A nil err yields nil.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreUnavailableError{Op: op, Err: err}
}

// IsValidation reports whether err is or wraps a ValidationError
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is or wraps a NotFoundError
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsUnavailable reports whether err is or wraps a StoreUnavailableError
func IsUnavailable(err error) bool {
	var target *StoreUnavailableError
	return errors.As(err, &target)
}
