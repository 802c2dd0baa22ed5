// Package cache implements adapters backed by Redis.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/realtyhub/backend/internal/application/adapter"
	"github.com/realtyhub/backend/internal/domain/entity"
	domainerror "github.com/realtyhub/backend/internal/domain/error"
)

// consumeScript runs the fixed-window read-increment-decide step inside Redis.
// KEYS[1] bucket, ARGV[1] now (ms), ARGV[2] window (ms), ARGV[3] limit.
// Returns {window_start_ms, count}.
var consumeScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

local start = tonumber(redis.call('HGET', KEYS[1], 'start'))
local count = tonumber(redis.call('HGET', KEYS[1], 'count'))

if start == nil or count == nil or start + window <= now then
	start = now
	count = 1
	redis.call('HSET', KEYS[1], 'start', start, 'count', count)
	redis.call('PEXPIREAT', KEYS[1], start + window)
elseif count <= limit then
	count = redis.call('HINCRBY', KEYS[1], 'count', 1)
end

return {start, count}
`)

const keyPrefix = "ratelimit:"

// RedisRateLimitStore keeps fixed-window counters in Redis.
type RedisRateLimitStore struct {
	client redis.UniversalClient
}

// NewRedisRateLimitStore creates a Redis-backed rate limit store.
func NewRedisRateLimitStore(client redis.UniversalClient) adapter.RateLimitStore {
	return &RedisRateLimitStore{client: client}
}

// Consume records one hit for key and returns the resulting decision.
func (s *RedisRateLimitStore) Consume(ctx context.Context, key string, window time.Duration, limit int, now time.Time) (*entity.RateLimitDecision, error) {
	windowSeconds := int(window / time.Second)
	if windowSeconds <= 0 || limit <= 0 || key == "" {
		return nil, domainerror.NewRateLimitError(
			domainerror.ErrCodeInvalidRateLimit,
			fmt.Sprintf("invalid rate limit policy (key=%q window=%s limit=%d)", key, window, limit),
			nil,
		)
	}

	values, err := consumeScript.Run(ctx, s.client,
		[]string{keyPrefix + key},
		now.UnixMilli(), int64(windowSeconds)*1000, limit,
	).Int64Slice()
	if err != nil {
		return nil, domainerror.NewRateLimitError(
			domainerror.ErrCodeRateLimitStore,
			"failed to consume rate limit counter",
			fmt.Errorf("%w: %v", domainerror.ErrRateLimitStore, err),
		)
	}
	if len(values) != 2 {
		return nil, domainerror.NewRateLimitError(
			domainerror.ErrCodeRateLimitStore,
			fmt.Sprintf("unexpected script reply of length %d", len(values)),
			domainerror.ErrRateLimitStore,
		)
	}

	counter := &entity.RateLimitCounter{
		Key:           key,
		WindowStart:   time.UnixMilli(values[0]).UTC(),
		Count:         int(values[1]),
		Limit:         limit,
		WindowSeconds: windowSeconds,
	}
	return counter.Decision(), nil
}

var _ adapter.RateLimitStore = (*RedisRateLimitStore)(nil)
