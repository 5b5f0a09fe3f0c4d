// Package ratelimit provides per-key request rate limiters for HTTP middleware.
package ratelimit

import (
	"context"
	"time"
)

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	// Allow checks if a request is allowed within limit requests per window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// Remaining returns the number of requests still allowed in the window.
	Remaining(ctx context.Context, key string, limit int, window time.Duration) (int, error)
}
