package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultSweepInterval is how often idle buckets are looked for.
const DefaultSweepInterval = time.Minute

type bucket struct {
	limiter  *rate.Limiter
	window   time.Duration
	lastSeen time.Time
}

// MemoryLimiter is a process-local token bucket limiter per key.
//
// A bucket untouched for a full window has refilled completely, so it is
// dropped on the next sweep and recreated on demand.
type MemoryLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	sweepEach time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewMemoryLimiter creates an in-memory limiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		buckets:   make(map[string]*bucket),
		sweepEach: DefaultSweepInterval,
		now:       time.Now,
	}
}

func (m *MemoryLimiter) get(key string, limit int, window time.Duration) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Sub(m.lastSweep) >= m.sweepEach {
		m.sweep(now)
	}

	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{
			limiter: rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit),
			window:  window,
		}
		m.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// sweep must be called with mu held.
func (m *MemoryLimiter) sweep(now time.Time) {
	for key, b := range m.buckets {
		if now.Sub(b.lastSeen) >= b.window {
			delete(m.buckets, key)
		}
	}
	m.lastSweep = now
}

// Len returns the number of tracked keys.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}

// Allow implements Limiter.
func (m *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return false, nil
	}
	return m.get(key, limit, window).Allow(), nil
}

// Remaining implements Limiter.
func (m *MemoryLimiter) Remaining(_ context.Context, key string, limit int, window time.Duration) (int, error) {
	if limit <= 0 {
		return 0, nil
	}
	tokens := int(m.get(key, limit, window).Tokens())
	if tokens < 0 {
		tokens = 0
	}
	return tokens, nil
}

var _ Limiter = (*MemoryLimiter)(nil)
