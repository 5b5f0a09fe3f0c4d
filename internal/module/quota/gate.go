package quota

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/aidash/server/internal/shared/metrics"
	"github.com/aidash/server/internal/shared/requestctx"
	"go.uber.org/zap"
)

// Gate outcomes, used as metric labels.
const (
	OutcomeAdmitted       = "admitted"
	OutcomeRejected       = "rejected"
	OutcomeUnauthorized   = "unauthorized"
	OutcomeInvalidUser    = "invalid_user"
	OutcomeStorageFailure = "storage_failure"
)

// Gate admits or rejects billable calls against a fixed free limit.
// It must be called before the costly upstream call, and quota consumed
// on admission is never refunded.
type Gate struct {
	ledger  Ledger
	limit   atomic.Int64
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewGate creates a gate over ledger with the given free limit.
func NewGate(ledger Ledger, limit int64, logger *zap.Logger, m *metrics.Metrics) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Gate{ledger: ledger, logger: logger, metrics: m}
	g.limit.Store(limit)
	return g
}

// Limit returns the current free limit.
func (g *Gate) Limit() int64 {
	return g.limit.Load()
}

// SetLimit changes the free limit for subsequent calls.
func (g *Gate) SetLimit(limit int64) {
	if old := g.limit.Swap(limit); old != limit {
		g.logger.Info("free limit changed", zap.Int64("old", old), zap.Int64("new", limit))
	}
}

// CheckAndConsume admits one billable call for userID.
//
// It returns ErrUnauthorized without touching the ledger for a blank user,
// ErrInvalidUserID for an id longer than MaxUserIDLength, ErrStorageFailure when the ledger fails, and ErrQuotaExceeded together
// with the current count when the user is at or above the limit.
func (g *Gate) CheckAndConsume(ctx context.Context, userID string) (Result, error) {
	limit := g.limit.Load()
	log := g.logger.With(zap.String("user_id", userID))
	if id := requestctx.RequestID(ctx); id != "" {
		log = log.With(zap.String("request_id", id))
	}

	if strings.TrimSpace(userID) == "" {
		g.record(OutcomeUnauthorized)
		log.Debug("quota check without user")
		return Result{Limit: limit}, ErrUnauthorized
	}
	if len(userID) > MaxUserIDLength {
		g.record(OutcomeInvalidUser)
		log.Debug("quota check with oversized user id", zap.Int("length", len(userID)))
		return Result{Limit: limit}, ErrInvalidUserID
	}

	decision, err := g.ledger.AdmitAndIncrement(ctx, userID, limit)
	if err != nil {
		g.record(OutcomeStorageFailure)
		log.Error("usage ledger failed", zap.Error(err))
		return Result{Limit: limit}, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}

	result := Result{
		Admitted:  decision.Admitted,
		Count:     decision.Count,
		Limit:     limit,
		Remaining: remaining(limit, decision.Count),
	}
	if !decision.Admitted {
		g.record(OutcomeRejected)
		log.Info("free limit reached", zap.Int64("usage_count", decision.Count), zap.Int64("limit", limit))
		return result, ErrQuotaExceeded
	}

	g.record(OutcomeAdmitted)
	log.Debug("billable call admitted", zap.Int64("usage_count", decision.Count), zap.Int64("limit", limit))
	return result, nil
}

// Usage returns the quota summary for userID without consuming anything.
func (g *Gate) Usage(ctx context.Context, userID string) (Summary, error) {
	limit := g.limit.Load()
	if strings.TrimSpace(userID) == "" {
		return Summary{}, ErrUnauthorized
	}
	if len(userID) > MaxUserIDLength {
		return Summary{}, ErrInvalidUserID
	}

	var count int64
	record, err := g.ledger.GetUsage(ctx, userID)
	switch {
	case errors.Is(err, ErrRecordNotFound):
	case err != nil:
		return Summary{}, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	default:
		count = record.UsageCount
	}

	return Summary{
		UserID:     userID,
		UsageCount: count,
		Limit:      limit,
		Remaining:  remaining(limit, count),
		Exhausted:  count >= limit,
	}, nil
}

func (g *Gate) record(outcome string) {
	if g.metrics != nil {
		g.metrics.RecordQuotaDecision(outcome)
	}
}
