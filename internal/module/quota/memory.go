package quota

import (
	"context"
	"sync"
	"time"
)

// MemoryLedger keeps usage in process memory. Counts are lost on restart,
// so it is meant for development and single-instance deployments.
type MemoryLedger struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
}

type memoryEntry struct {
	mu        sync.Mutex
	count     int64
	createdAt time.Time
	updatedAt time.Time
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: make(map[string]*memoryEntry)}
}

// entry returns the entry for userID, creating it when create is set.
// The map lock is only held for the lookup.
func (m *MemoryLedger) entry(userID string, create bool) *memoryEntry {
	m.mu.RLock()
	e, ok := m.entries[userID]
	m.mu.RUnlock()
	if ok || !create {
		return e
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok = m.entries[userID]; !ok {
		e = &memoryEntry{}
		m.entries[userID] = e
	}
	return e
}

// GetUsage implements Ledger.
func (m *MemoryLedger) GetUsage(_ context.Context, userID string) (*UsageRecord, error) {
	e := m.entry(userID, false)
	if e == nil {
		return nil, ErrRecordNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.count == 0 {
		return nil, ErrRecordNotFound
	}
	return &UsageRecord{
		UserID:     userID,
		UsageCount: e.count,
		CreatedAt:  e.createdAt,
		UpdatedAt:  e.updatedAt,
	}, nil
}

// AdmitAndIncrement implements Ledger.
func (m *MemoryLedger) AdmitAndIncrement(ctx context.Context, userID string, limit int64) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	if limit <= 0 {
		var current int64
		if e := m.entry(userID, false); e != nil {
			e.mu.Lock()
			current = e.count
			e.mu.Unlock()
		}
		return Rejected(current), nil
	}

	e := m.entry(userID, true)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.count >= limit {
		return Rejected(e.count), nil
	}

	now := time.Now()
	if e.count == 0 {
		e.createdAt = now
	}
	e.count++
	e.updatedAt = now
	return Admitted(e.count), nil
}

// Reset implements Ledger.
func (m *MemoryLedger) Reset(_ context.Context, userID string) error {
	if e := m.entry(userID, false); e != nil {
		e.mu.Lock()
		e.count = 0
		e.mu.Unlock()
	}
	return nil
}

// ResetAll implements Ledger.
func (m *MemoryLedger) ResetAll(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, e := range m.entries {
		e.mu.Lock()
		if e.count > 0 {
			n++
		}
		e.count = 0
		e.mu.Unlock()
	}
	return n, nil
}

var _ Ledger = (*MemoryLedger)(nil)
