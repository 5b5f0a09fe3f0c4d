package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name     string
		err      *AppError
		status   int
		code     string
		sentinel error
	}{
		{"bad request", BadRequest("messages are required"), http.StatusBadRequest, "INVALID_INPUT", ErrBadRequest},
		{"unauthorized", Unauthorized(""), http.StatusUnauthorized, "UNAUTHORIZED", ErrUnauthorized},
		{"quota exceeded", QuotaExceeded(), http.StatusForbidden, "QUOTA_EXCEEDED", ErrQuotaExceeded},
		{"storage failure", StorageFailure(cause), http.StatusInternalServerError, "STORAGE_FAILURE", ErrStorageFailure},
		{"upstream failure", UpstreamFailure("", cause), http.StatusInternalServerError, "UPSTREAM_FAILURE", ErrUpstreamFailure},
		{"not found", NotFound("user"), http.StatusNotFound, "NOT_FOUND", ErrNotFound},
		{"conflict", Conflict("Email already in use"), http.StatusConflict, "CONFLICT", ErrConflict},
		{"rate limited", RateLimited(), http.StatusTooManyRequests, "RATE_LIMITED", ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.StatusCode)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.ErrorIs(t, tt.err, tt.sentinel)
		})
	}
}

func TestQuotaExceededMessage(t *testing.T) {
	assert.Equal(t, "Free limit reached, please upgrade", QuotaExceeded().Message)
}

func TestStorageFailure_KeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := StorageFailure(cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrStorageFailure)
	assert.Equal(t, "Internal server error", err.Message)
}

func TestGetStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, GetStatusCode(QuotaExceeded()))
	assert.Equal(t, http.StatusForbidden, GetStatusCode(fmt.Errorf("wrapped: %w", QuotaExceeded())))
	assert.Equal(t, http.StatusInternalServerError, GetStatusCode(errors.New("plain")))
}

func TestAs(t *testing.T) {
	appErr, ok := As(fmt.Errorf("ctx: %w", Unauthorized("")))
	assert.True(t, ok)
	assert.Equal(t, "Unauthorized request", appErr.Message)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}
