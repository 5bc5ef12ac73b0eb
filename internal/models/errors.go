package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrOrderNotFound is returned by stores when no order matches the identifier.
var ErrOrderNotFound = errors.New("order not found")

// ValidationError reports malformed or incomplete input. Fields names the offending fields.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a validation error without field details
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// MissingFieldsError lists required fields absent from the input
func MissingFieldsError(fields []string) *ValidationError {
	return &ValidationError{
		Message: fmt.Sprintf("Missing required fields: %s", strings.Join(fields, ", ")),
		Fields:  fields,
	}
}

// InvalidFieldsError lists fields present with unusable values
func InvalidFieldsError(fields []string, reasons []string) *ValidationError {
	return &ValidationError{
		Message: fmt.Sprintf("Invalid fields: %s", strings.Join(reasons, "; ")),
		Fields:  fields,
	}
}

// NotFoundError reports a referenced entity that does not exist
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Entity)
}

// PersistenceError wraps a store failure. Its text is not meant for clients.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s failed", e.Op)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// DeliveryError wraps a channel send failure
type DeliveryError struct {
	To  string
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to deliver message: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
