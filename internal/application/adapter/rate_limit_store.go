// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"
	"time"

	"github.com/realtyhub/backend/internal/domain/entity"
)

// RateLimitStore performs the read-increment-decide step as one atomic store operation.
type RateLimitStore interface {
	Consume(ctx context.Context, key string, window time.Duration, limit int, now time.Time) (*entity.RateLimitDecision, error)
}
