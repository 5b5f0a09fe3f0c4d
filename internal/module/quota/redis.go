package quota

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKeyPrefix namespaces usage keys.
const DefaultRedisKeyPrefix = "quota:usage:"

// admitScript increments KEYS[1] while it is below ARGV[1].
// Returns {1, new_count} when admitted and {0, current_count} when not.
var admitScript = redis.NewScript(`
local limit = tonumber(ARGV[1])
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current >= limit then
    return {0, current}
end
local n = redis.call("INCR", KEYS[1])
return {1, n}
`)

// RedisLedger stores usage counters as Redis integers, one key per user.
type RedisLedger struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisLedger creates a Redis-backed ledger.
func NewRedisLedger(client redis.UniversalClient, keyPrefix string) *RedisLedger {
	if keyPrefix == "" {
		keyPrefix = DefaultRedisKeyPrefix
	}
	return &RedisLedger{client: client, keyPrefix: keyPrefix}
}

func (l *RedisLedger) key(userID string) string {
	return l.keyPrefix + userID
}

// GetUsage implements Ledger. Timestamps are not tracked in Redis.
func (l *RedisLedger) GetUsage(ctx context.Context, userID string) (*UsageRecord, error) {
	count, err := l.client.Get(ctx, l.key(userID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &UsageRecord{UserID: userID, UsageCount: count}, nil
}

// AdmitAndIncrement implements Ledger.
func (l *RedisLedger) AdmitAndIncrement(ctx context.Context, userID string, limit int64) (Decision, error) {
	if limit <= 0 {
		record, err := l.GetUsage(ctx, userID)
		switch {
		case errors.Is(err, ErrRecordNotFound):
			return Rejected(0), nil
		case err != nil:
			return Decision{}, err
		}
		return Rejected(record.UsageCount), nil
	}

	res, err := admitScript.Run(ctx, l.client, []string{l.key(userID)}, limit).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("admit usage: %w", err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("admit usage: unexpected reply %v", res)
	}
	if res[0] == 1 {
		return Admitted(res[1]), nil
	}
	return Rejected(res[1]), nil
}

// Reset implements Ledger.
func (l *RedisLedger) Reset(ctx context.Context, userID string) error {
	return l.client.Del(ctx, l.key(userID)).Err()
}

// ResetAll implements Ledger.
func (l *RedisLedger) ResetAll(ctx context.Context) (int64, error) {
	var (
		cursor  uint64
		removed int64
	)
	for {
		keys, next, err := l.client.Scan(ctx, cursor, l.keyPrefix+"*", 500).Result()
		if err != nil {
			return removed, err
		}
		if len(keys) > 0 {
			n, err := l.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, err
			}
			removed += n
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

var _ Ledger = (*RedisLedger)(nil)
