package model

import (
	"time"

	"github.com/realtyhub/backend/internal/domain/entity"
)

// RateLimitCounterModel represents the rate_limit_counters table.
// Window bounds are kept as epoch milliseconds so the upsert arithmetic is
// identical on PostgreSQL and SQLite.
type RateLimitCounterModel struct {
	BucketKey     string `gorm:"type:varchar(255);primaryKey"`
	WindowStartMs int64  `gorm:"not null"`
	HitCount      int    `gorm:"not null;default:0"`
	RequestLimit  int    `gorm:"not null"`
	WindowSeconds int    `gorm:"not null"`
	UpdatedAt     time.Time
}

// TableName returns the table name for the RateLimitCounterModel.
func (RateLimitCounterModel) TableName() string {
	return "rate_limit_counters"
}

// ToEntity converts the row to a domain counter.
func (m *RateLimitCounterModel) ToEntity() *entity.RateLimitCounter {
	return &entity.RateLimitCounter{
		Key:           m.BucketKey,
		WindowStart:   time.UnixMilli(m.WindowStartMs).UTC(),
		Count:         m.HitCount,
		Limit:         m.RequestLimit,
		WindowSeconds: m.WindowSeconds,
	}
}
