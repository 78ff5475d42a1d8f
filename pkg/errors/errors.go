// Package errors provides structured error handling for userapi
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType groups error codes by how callers should react to them
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeInternal     ErrorType = "internal"
)

// ErrorCode represents specific error codes
type ErrorCode string

const (
	ErrCodeValidation         ErrorCode = "VALIDATION_ERROR"
	ErrCodeUnauthenticated    ErrorCode = "UNAUTHENTICATED"
	ErrCodeForbidden          ErrorCode = "FORBIDDEN"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// AppError represents a structured error in userapi
type AppError struct {
	Type    ErrorType              `json:"type"`
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error returns the bare message; it is what reaches HTTP clients
func (e *AppError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// HTTPStatus maps the error code to a response status
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeUnauthenticated, ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// NewAppError creates a new error
func NewAppError(errType ErrorType, code ErrorCode, message string) *AppError {
	return &AppError{Type: errType, Code: code, Message: message}
}

// NewValidationError is returned for malformed or missing input
func NewValidationError(message string) *AppError {
	return NewAppError(ErrorTypeValidation, ErrCodeValidation, message)
}

// NewUnauthenticatedError is returned when no token accompanies a request
func NewUnauthenticatedError(message string) *AppError {
	return NewAppError(ErrorTypeUnauthorized, ErrCodeUnauthenticated, message)
}

// NewForbiddenError is returned when a token is present but unusable
func NewForbiddenError(message string) *AppError {
	return NewAppError(ErrorTypeForbidden, ErrCodeForbidden, message)
}

// NewNotFoundError reports a missing entity; the message reads "<Resource> not found"
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrorTypeNotFound, ErrCodeNotFound,
		fmt.Sprintf("%s not found", resource)).WithDetail("resource", resource)
}

// NewInvalidCredentialsError is returned by login on a password mismatch
func NewInvalidCredentialsError() *AppError {
	return NewAppError(ErrorTypeUnauthorized, ErrCodeInvalidCredentials, "Invalid credentials")
}

// NewInternalError wraps an unexpected store or runtime failure
func NewInternalError(message string, cause error) *AppError {
	e := NewAppError(ErrorTypeInternal, ErrCodeInternal, message)
	e.Cause = cause
	return e
}

// Wrap turns any error into an internal AppError, keeping AppErrors as they are
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr := AsAppError(err); appErr != nil {
		return appErr
	}
	return NewInternalError(err.Error(), err)
}

// AsAppError extracts an AppError anywhere in the chain
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// HTTPStatus returns the response status for any error
func HTTPStatus(err error) int {
	if appErr := AsAppError(err); appErr != nil {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// HasCode reports whether err carries the given code
func HasCode(err error, code ErrorCode) bool {
	appErr := AsAppError(err)
	return appErr != nil && appErr.Code == code
}

func IsNotFound(err error) bool           { return HasCode(err, ErrCodeNotFound) }
func IsUnauthenticated(err error) bool    { return HasCode(err, ErrCodeUnauthenticated) }
func IsForbidden(err error) bool          { return HasCode(err, ErrCodeForbidden) }
func IsInvalidCredentials(err error) bool { return HasCode(err, ErrCodeInvalidCredentials) }
func IsValidation(err error) bool         { return HasCode(err, ErrCodeValidation) }
