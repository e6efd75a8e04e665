// Package errors defines custom error types and error handling utilities for the kpidash service.
// Every AppError carries a machine-readable code and the HTTP status it maps to, so
// transport layers can pattern-match failures without string comparison.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error codes surfaced in API envelopes.
const (
	CodeUnauthorized         = "unauthorized"
	CodeOrganizationNotFound = "organization_not_found"
	CodeRateLimitExceeded    = "rate_limit_exceeded"
	CodeInvalidRequest       = "invalid_request"
	CodeInvalidCredentials   = "invalid_credentials"
	CodeConflict             = "conflict"
	CodeNotFound             = "not_found"
	CodeInternal             = "internal_error"
	CodeInvalidConfig        = "invalid_config"
)

// AppError represents a structured application error.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]interface{}
	cause      error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.cause
}

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause returns a copy of the error wrapping cause.
func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.cause = cause
	return &cp
}

// WithMessage returns a copy of the error with a different human message.
func (e *AppError) WithMessage(msg string) *AppError {
	cp := *e
	cp.Message = msg
	return &cp
}

// WithDetail returns a copy of the error with an extra detail entry.
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	cp := *e
	cp.Details = make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

// New creates a new AppError.
func New(code string, httpStatus int, message string) *AppError {
	return &AppError{Code: code, HTTPStatus: httpStatus, Message: message}
}

// ================================================================================
// Predefined Errors
// ================================================================================

var (
	// ErrUnauthorized is returned when no valid session exists outside development.
	ErrUnauthorized = New(CodeUnauthorized, http.StatusUnauthorized, "Authentication required")

	// ErrOrganizationNotFound is returned when the session user has no organization.
	ErrOrganizationNotFound = New(CodeOrganizationNotFound, http.StatusNotFound, "User organization not found")

	// ErrRateLimitExceeded is returned when a caller exceeds its quota.
	ErrRateLimitExceeded = New(CodeRateLimitExceeded, http.StatusTooManyRequests, "Too many requests. Please try again later.")

	ErrInvalidRequest     = New(CodeInvalidRequest, http.StatusBadRequest, "Invalid request")
	ErrInvalidCredentials = New(CodeInvalidCredentials, http.StatusUnauthorized, "Invalid email or password")
	ErrConflict           = New(CodeConflict, http.StatusConflict, "Resource already exists")
	ErrNotFound           = New(CodeNotFound, http.StatusNotFound, "Resource not found")
	ErrInternal           = New(CodeInternal, http.StatusInternalServerError, "Internal server error")
	ErrInvalidConfig      = New(CodeInvalidConfig, http.StatusInternalServerError, "Invalid configuration")
)

// ================================================================================
// Helpers
// ================================================================================

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is is a passthrough to the standard library so callers need a single import.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// Internal wraps err as an internal error with a message.
func Internal(message string, err error) *AppError {
	return ErrInternal.WithMessage(message).WithCause(err)
}

// InvalidConfig reports a configuration problem.
func InvalidConfig(format string, args ...interface{}) *AppError {
	return ErrInvalidConfig.WithMessage(fmt.Sprintf(format, args...))
}

// HTTPStatus returns the status code for err, defaulting to 500.
func HTTPStatus(err error) int {
	if appErr, ok := As(err); ok && appErr.HTTPStatus != 0 {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
