// Package adapter talks to the third-party AI upstreams.
package adapter

import (
	"errors"
	"fmt"
)

// Upstream errors.
var (
	ErrNotConfigured  = errors.New("upstream not configured")
	ErrRateLimited    = errors.New("upstream rate limited")
	ErrAuthFailed     = errors.New("upstream authentication failed")
	ErrInvalidRequest = errors.New("upstream rejected request")
	ErrUnavailable    = errors.New("upstream unavailable")
	ErrMalformed      = errors.New("upstream returned malformed response")
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleModel     = "model"
)

// Error is an upstream failure with the status and message the upstream reported.
type Error struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%v (status %d): %s", e.Err, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%v (status %d)", e.Err, e.StatusCode)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// sentinelForStatus classifies an upstream HTTP status.
func sentinelForStatus(status int) error {
	switch {
	case status == 429:
		return ErrRateLimited
	case status == 401 || status == 403:
		return ErrAuthFailed
	case status >= 400 && status < 500:
		return ErrInvalidRequest
	default:
		return ErrUnavailable
	}
}
