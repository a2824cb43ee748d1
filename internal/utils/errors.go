package utils

import (
	"errors"
	"fmt"
	"strings"
)

// Custom error types for the application
var (
	ErrNotFound       = errors.New("resource not found")
	ErrDuplicate      = errors.New("duplicate resource")
	ErrValidation     = errors.New("validation error")
	ErrInternal       = errors.New("internal error")
	ErrUnavailable    = errors.New("resource temporarily unavailable")
	ErrNotPermitted   = errors.New("operation not permitted")
	ErrInvalidRequest = errors.New("invalid request")
)

// AppError represents an application error with additional context
type AppError struct {
	Err     error  // The underlying error category
	Message string // User-friendly error message
	DevInfo string // Additional information for developers
	Field   string // Field related to the error (for validation errors)
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the given category and message
func New(err error, message string) *AppError {
	return &AppError{
		Err:     err,
		Message: message,
	}
}

// NewValidationError creates a new validation error for a specific field
func NewValidationError(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resourceType string, identifier interface{}) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s with identifier '%v' not found", resourceType, identifier),
	}
}

// NewDuplicateError creates a new duplicate resource error
func NewDuplicateError(resourceType, field string, value interface{}) *AppError {
	return &AppError{
		Err:     ErrDuplicate,
		Message: fmt.Sprintf("%s with %s '%v' already exists", resourceType, field, value),
		Field:   field,
	}
}

// NewNotPermittedError creates a new permission error
func NewNotPermittedError(message string) *AppError {
	if message == "" {
		message = "You don't have permission to perform this operation"
	}
	return &AppError{
		Err:     ErrNotPermitted,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(err error) *AppError {
	devInfo := ""
	if err != nil {
		devInfo = err.Error()
	}
	return &AppError{
		Err:     ErrInternal,
		Message: "An internal error occurred",
		DevInfo: devInfo,
	}
}

// ParseError attempts to classify an arbitrary error into an AppError.
// SQLite reports constraint and contention failures through error text, so
// classification matches on the driver's message patterns.
func ParseError(err error) *AppError {
	// If it's already an AppError, return it
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	// Check for specific error categories
	switch {
	case errors.Is(err, ErrNotFound):
		return NewNotFoundError("Resource", "")
	case errors.Is(err, ErrDuplicate):
		return NewDuplicateError("Resource", "", "")
	case errors.Is(err, ErrValidation):
		return NewValidationError("", err.Error())
	case errors.Is(err, ErrNotPermitted):
		return NewNotPermittedError("")
	}

	// Check for SQLite-specific error patterns
	errMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errMsg, "unique constraint failed"):
		return &AppError{
			Err:     ErrDuplicate,
			Message: "A resource with the same unique identifier already exists",
			DevInfo: err.Error(),
		}
	case strings.Contains(errMsg, "foreign key constraint failed"):
		return &AppError{
			Err:     ErrInvalidRequest,
			Message: "This operation violates a foreign key constraint",
			DevInfo: err.Error(),
		}
	case strings.Contains(errMsg, "database is locked"), strings.Contains(errMsg, "database table is locked"):
		return &AppError{
			Err:     ErrUnavailable,
			Message: "The database is busy, please try again",
			DevInfo: err.Error(),
		}
	case strings.Contains(errMsg, "not found"), strings.Contains(errMsg, "no rows"):
		return &AppError{
			Err:     ErrNotFound,
			Message: "The requested resource could not be found",
			DevInfo: err.Error(),
		}
	}

	// Default to internal error
	return NewInternalError(err)
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if an error is a duplicate resource error
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}
