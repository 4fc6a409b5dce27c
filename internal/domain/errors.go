package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates that a requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrServiceUnavailable indicates that an external service is unavailable.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrCredentialsNotConfigured indicates that required API credentials
	// are missing, so search and podcast actions must be deferred.
	ErrCredentialsNotConfigured = errors.New("credentials not configured")

	// ErrSessionSuperseded indicates that a search session was replaced by a
	// newer one and its late results must be discarded.
	ErrSessionSuperseded = errors.New("session superseded")
)

// ValidationError represents a validation error for a specific field.
// It is rejected before any remote call is issued.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// ServiceError represents a non-success response from a remote collaborator
// (categorization, collection, title generation, script generation, or audio
// synthesis). Whether a ServiceError is fatal or degrading depends on the
// pipeline stage that produced it.
type ServiceError struct {
	Stage      string
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s failed (status %d): %s", e.Stage, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s failed: %s", e.Stage, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewServiceError creates a new ServiceError.
func NewServiceError(stage string, statusCode int, message string, cause error) *ServiceError {
	return &ServiceError{
		Stage:      stage,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}

// NotFoundError provides details about a not found entity.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{
		Entity: entity,
		ID:     id,
	}
}
