package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// admitSQL creates the record at 1 or increments it while it is below the
// limit, in one statement. No returned row means the limit was reached.
// Supported by PostgreSQL and SQLite 3.35+.
const admitSQL = `INSERT INTO usage_records (user_id, usage_count, created_at, updated_at)
VALUES (?, 1, ?, ?)
ON CONFLICT (user_id) DO UPDATE
SET usage_count = usage_records.usage_count + 1, updated_at = excluded.updated_at
WHERE usage_records.usage_count < ?
RETURNING usage_count`

// SQLLedger stores usage records in a relational database via gorm.
type SQLLedger struct {
	db *gorm.DB
}

// NewSQLLedger creates a ledger backed by db. The usage_records table must exist.
func NewSQLLedger(db *gorm.DB) *SQLLedger {
	return &SQLLedger{db: db}
}

// GetUsage implements Ledger.
func (l *SQLLedger) GetUsage(ctx context.Context, userID string) (*UsageRecord, error) {
	var record UsageRecord
	err := l.db.WithContext(ctx).Where("user_id = ?", userID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}

// AdmitAndIncrement implements Ledger.
func (l *SQLLedger) AdmitAndIncrement(ctx context.Context, userID string, limit int64) (Decision, error) {
	if limit <= 0 {
		return l.rejected(ctx, userID)
	}

	now := time.Now().UTC()
	rows, err := l.db.WithContext(ctx).Raw(admitSQL, userID, now, now, limit).Rows()
	if err != nil {
		return Decision{}, fmt.Errorf("admit usage: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		var count int64
		if err := rows.Scan(&count); err != nil {
			return Decision{}, fmt.Errorf("scan usage: %w", err)
		}
		return Admitted(count), nil
	}
	if err := rows.Err(); err != nil {
		return Decision{}, fmt.Errorf("admit usage: %w", err)
	}
	rows.Close()

	return l.rejected(ctx, userID)
}

// rejected reads the current count to report with a rejection.
func (l *SQLLedger) rejected(ctx context.Context, userID string) (Decision, error) {
	record, err := l.GetUsage(ctx, userID)
	switch {
	case errors.Is(err, ErrRecordNotFound):
		return Rejected(0), nil
	case err != nil:
		return Decision{}, fmt.Errorf("read usage: %w", err)
	}
	return Rejected(record.UsageCount), nil
}

// Reset implements Ledger.
func (l *SQLLedger) Reset(ctx context.Context, userID string) error {
	return l.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&UsageRecord{}).Error
}

// ResetAll implements Ledger.
func (l *SQLLedger) ResetAll(ctx context.Context) (int64, error) {
	result := l.db.WithContext(ctx).Where("1 = 1").Delete(&UsageRecord{})
	return result.RowsAffected, result.Error
}

var _ Ledger = (*SQLLedger)(nil)
