package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/realtyhub/backend/internal/application/adapter"
	"github.com/realtyhub/backend/internal/domain/entity"
	domainerror "github.com/realtyhub/backend/internal/domain/error"
	"github.com/realtyhub/backend/internal/integration/persistence/model"
)

// consumeCounterSQL increments a fixed-window counter in a single statement.
// An expired window restarts at 1; otherwise the count only grows while it is
// still within the limit, so rejected callers leave it at limit+1.
const consumeCounterSQL = `
INSERT INTO rate_limit_counters (bucket_key, window_start_ms, hit_count, request_limit, window_seconds, updated_at)
VALUES (?, ?, 1, ?, ?, ?)
ON CONFLICT (bucket_key) DO UPDATE SET
	hit_count = CASE
		WHEN rate_limit_counters.window_start_ms + rate_limit_counters.window_seconds * 1000 <= excluded.window_start_ms THEN 1
		WHEN rate_limit_counters.hit_count <= excluded.request_limit THEN rate_limit_counters.hit_count + 1
		ELSE rate_limit_counters.hit_count
	END,
	window_start_ms = CASE
		WHEN rate_limit_counters.window_start_ms + rate_limit_counters.window_seconds * 1000 <= excluded.window_start_ms THEN excluded.window_start_ms
		ELSE rate_limit_counters.window_start_ms
	END,
	request_limit = excluded.request_limit,
	window_seconds = excluded.window_seconds,
	updated_at = excluded.updated_at
RETURNING bucket_key, window_start_ms, hit_count, request_limit, window_seconds`

// rateLimitRepository implements adapter.RateLimitStore on top of the relational database.
type rateLimitRepository struct {
	db *gorm.DB
}

// NewRateLimitRepository creates a database-backed rate limit store.
func NewRateLimitRepository(db *gorm.DB) adapter.RateLimitStore {
	return &rateLimitRepository{db: db}
}

// Consume records one hit for key and returns the resulting decision.
func (r *rateLimitRepository) Consume(ctx context.Context, key string, window time.Duration, limit int, now time.Time) (*entity.RateLimitDecision, error) {
	windowSeconds := int(window / time.Second)
	if windowSeconds <= 0 || limit <= 0 || key == "" {
		return nil, domainerror.NewRateLimitError(
			domainerror.ErrCodeInvalidRateLimit,
			fmt.Sprintf("invalid rate limit policy (key=%q window=%s limit=%d)", key, window, limit),
			nil,
		)
	}

	var counter model.RateLimitCounterModel
	result := r.db.WithContext(ctx).
		Raw(consumeCounterSQL, key, now.UnixMilli(), limit, windowSeconds, now.UTC()).
		Scan(&counter)
	if result.Error != nil {
		return nil, domainerror.NewRateLimitError(
			domainerror.ErrCodeRateLimitStore,
			"failed to consume rate limit counter",
			fmt.Errorf("%w: %v", domainerror.ErrRateLimitStore, result.Error),
		)
	}
	if counter.BucketKey == "" {
		return nil, domainerror.NewRateLimitError(
			domainerror.ErrCodeRateLimitStore,
			"rate limit upsert returned no row",
			domainerror.ErrRateLimitStore,
		)
	}

	return counter.ToEntity().Decision(), nil
}
