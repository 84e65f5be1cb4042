package domain

import (
	"errors"
	"fmt"
)

// NotFoundError is returned when an entity id or document number does not
// resolve to an existing record.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ConflictError is returned when a supplied unique key already exists.
type ConflictError struct {
	Entity EntityType
	Key    string
	Reason string
}

func (e ConflictError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s %s already exists: %s", e.Entity, e.Key, e.Reason)
	}
	return fmt.Sprintf("%s %s already exists", e.Entity, e.Key)
}

// ValidationError reports a field-level or business-rule violation. Details
// carry structured context (field, current_status, requested_status, reason)
// for callers that need more than the message.
type ValidationError struct {
	Message string
	Details map[string]string
}

func (e ValidationError) Error() string {
	return e.Message
}

// Detail returns a copy of the error with an additional detail entry.
func (e ValidationError) Detail(key, value string) ValidationError {
	details := make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	e.Details = details
	return e
}

// NewValidationError constructs a validation error with optional details.
func NewValidationError(message string, details map[string]string) ValidationError {
	return ValidationError{Message: message, Details: details}
}

// BadRequestError reports a malformed request, such as an unknown status
// value in a transition request.
type BadRequestError struct {
	Message string
}

func (e BadRequestError) Error() string {
	return e.Message
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err wraps a ConflictError.
func IsConflict(err error) bool {
	var c ConflictError
	return errors.As(err, &c)
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var v ValidationError
	return errors.As(err, &v)
}
