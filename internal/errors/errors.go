package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents application-specific error codes
type ErrorCode string

const (
	// Client errors
	ErrCodeInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrCodeTooManyRequests  ErrorCode = "TOO_MANY_REQUESTS"

	// Notification errors
	ErrCodeConfigInvalid   ErrorCode = "CONFIG_INVALID"
	ErrCodeCommitSkipped   ErrorCode = "COMMIT_SKIPPED"
	ErrCodeTransportFailed ErrorCode = "TRANSPORT_FAILED"
	ErrCodeRemoteRejected  ErrorCode = "REMOTE_REJECTED"

	// Server errors
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// AppError represents an application error with additional context
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"-"`
	Err        error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new application error
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: getStatusCodeForError(code),
	}
}

// Wrap wraps an existing error with application context
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: getStatusCodeForError(code),
		Err:        err,
	}
}

// Wrapf wraps an existing error with formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:       code,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: getStatusCodeForError(code),
		Err:        err,
	}
}

// HasCode reports whether err is an AppError carrying code
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// getStatusCodeForError maps error codes to HTTP status codes
func getStatusCodeForError(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidRequest, ErrCodeValidationFailed:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeTooManyRequests:
		return http.StatusTooManyRequests
	case ErrCodeCommitSkipped:
		return http.StatusAccepted
	case ErrCodeTransportFailed, ErrCodeRemoteRejected:
		return http.StatusBadGateway
	case ErrCodeConfigInvalid, ErrCodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Common error constructors for convenience

// ValidationError creates a validation error
func ValidationError(message string) *AppError {
	return New(ErrCodeValidationFailed, message)
}

// InvalidRequest creates an invalid request error
func InvalidRequest(message string) *AppError {
	return New(ErrCodeInvalidRequest, message)
}

// ConfigInvalid creates a configuration error
func ConfigInvalid(message string) *AppError {
	return New(ErrCodeConfigInvalid, message)
}

// CommitSkipped reports a commit that does not touch the named repository
func CommitSkipped(repository, revision string) *AppError {
	return New(ErrCodeCommitSkipped, fmt.Sprintf("r%s does not touch repository %q", revision, repository))
}

// TransportFailed creates a transport error
func TransportFailed(err error) *AppError {
	return Wrap(err, ErrCodeTransportFailed, "Failed to reach webhook")
}

// RemoteRejected creates an error for a non-2xx webhook response
func RemoteRejected(status int, body string) *AppError {
	appErr := New(ErrCodeRemoteRejected, fmt.Sprintf("Webhook responded with status %d", status))
	appErr.Details = body
	return appErr
}

// InternalError creates an internal server error
func InternalError(err error) *AppError {
	return Wrap(err, ErrCodeInternalError, "Internal server error")
}
