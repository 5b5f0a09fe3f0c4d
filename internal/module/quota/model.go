package quota

import "time"

// UsageRecord is the per-user count of admitted billable calls.
type UsageRecord struct {
	UserID     string    `json:"userId" gorm:"primaryKey;type:varchar(255)"`
	UsageCount int64     `json:"usageCount" gorm:"not null;default:0"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// TableName returns the table name for UsageRecord.
func (UsageRecord) TableName() string {
	return "usage_records"
}

// Decision is the outcome of one admit-and-increment call.
// Count is the new count when admitted and the current count when rejected.
type Decision struct {
	Admitted bool
	Count    int64
}

// Admitted returns an admitting decision.
func Admitted(count int64) Decision {
	return Decision{Admitted: true, Count: count}
}

// Rejected returns a rejecting decision.
func Rejected(count int64) Decision {
	return Decision{Admitted: false, Count: count}
}

// Result is what the gate reports to a proxy handler.
type Result struct {
	Admitted  bool
	Count     int64
	Limit     int64
	Remaining int64
}

// Summary is a read-only view of a user's quota.
type Summary struct {
	UserID     string `json:"userId"`
	UsageCount int64  `json:"usageCount"`
	Limit      int64  `json:"limit"`
	Remaining  int64  `json:"remaining"`
	Exhausted  bool   `json:"exhausted"`
}

func remaining(limit, count int64) int64 {
	if count >= limit {
		return 0
	}
	return limit - count
}
