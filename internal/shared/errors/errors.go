package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error types.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrBadRequest      = errors.New("bad request")
	ErrConflict        = errors.New("resource conflict")
	ErrInternal        = errors.New("internal error")
	ErrQuotaExceeded   = errors.New("quota exceeded")
	ErrStorageFailure  = errors.New("storage failure")
	ErrUpstreamFailure = errors.New("upstream failure")
	ErrRateLimited     = errors.New("rate limited")
)

// QuotaExceededMessage is the message clients match on to start the upgrade flow.
const QuotaExceededMessage = "Free limit reached, please upgrade"

// AppError represents an application error with HTTP status and error code.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error.
func NewAppError(code string, message string, statusCode int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// NotFound creates a not found error.
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
		Err:        ErrNotFound,
	}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(message string) *AppError {
	if message == "" {
		message = "Unauthorized request"
	}
	return &AppError{
		Code:       "UNAUTHORIZED",
		Message:    message,
		StatusCode: http.StatusUnauthorized,
		Err:        ErrUnauthorized,
	}
}

// BadRequest creates an invalid input error.
func BadRequest(message string) *AppError {
	return &AppError{
		Code:       "INVALID_INPUT",
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Err:        ErrBadRequest,
	}
}

// Conflict creates a conflict error.
func Conflict(message string) *AppError {
	return &AppError{
		Code:       "CONFLICT",
		Message:    message,
		StatusCode: http.StatusConflict,
		Err:        ErrConflict,
	}
}

// QuotaExceeded creates the free tier exhaustion error.
func QuotaExceeded() *AppError {
	return &AppError{
		Code:       "QUOTA_EXCEEDED",
		Message:    QuotaExceededMessage,
		StatusCode: http.StatusForbidden,
		Err:        ErrQuotaExceeded,
	}
}

// StorageFailure creates an error for an unavailable usage store.
func StorageFailure(err error) *AppError {
	return &AppError{
		Code:       "STORAGE_FAILURE",
		Message:    "Internal server error",
		StatusCode: http.StatusInternalServerError,
		Err:        errors.Join(ErrStorageFailure, err),
	}
}

// UpstreamFailure creates an error for a failed third-party call.
func UpstreamFailure(message string, err error) *AppError {
	if message == "" {
		message = "Internal server error"
	}
	return &AppError{
		Code:       "UPSTREAM_FAILURE",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        errors.Join(ErrUpstreamFailure, err),
	}
}

// RateLimited creates a rate limited error.
func RateLimited() *AppError {
	return &AppError{
		Code:       "RATE_LIMITED",
		Message:    "rate limit exceeded",
		StatusCode: http.StatusTooManyRequests,
		Err:        ErrRateLimited,
	}
}

// Internal creates an internal error.
func Internal(message string, err error) *AppError {
	if message == "" {
		message = "Internal server error"
	}
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// GetStatusCode returns the HTTP status code for an error.
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// As finds the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
