package quota

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Ledger stores usage records and performs the atomic admit decision.
//
// AdmitAndIncrement must be linearizable per user: concurrent calls for the
// same user never admit more than limit calls in total. Calls for different
// users must not serialize on each other.
type Ledger interface {
	// GetUsage returns the record for userID, or ErrRecordNotFound.
	// It never creates a record.
	GetUsage(ctx context.Context, userID string) (*UsageRecord, error)

	// AdmitAndIncrement increments the count when it is below limit.
	// An absent user is created at 1. A limit <= 0 rejects without writing.
	AdmitAndIncrement(ctx context.Context, userID string, limit int64) (Decision, error)

	// Reset removes the record for userID. Resetting an absent user is not an error.
	Reset(ctx context.Context, userID string) error

	// ResetAll removes every record and returns how many were removed.
	ResetAll(ctx context.Context) (int64, error)
}

// Ledger backends.
const (
	BackendSQL    = "sql"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// NewLedger returns the ledger for backend. db is required for sql and
// client for redis.
func NewLedger(backend string, db *gorm.DB, client redis.UniversalClient, keyPrefix string) (Ledger, error) {
	switch backend {
	case BackendSQL, "":
		if db == nil {
			return nil, errors.New("sql ledger requires a database")
		}
		return NewSQLLedger(db), nil
	case BackendRedis:
		if client == nil {
			return nil, errors.New("redis ledger requires a redis client")
		}
		return NewRedisLedger(client, keyPrefix), nil
	case BackendMemory:
		return NewMemoryLedger(), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", backend)
	}
}
