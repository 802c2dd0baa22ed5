// Package ratelimit contains the fixed-window limiter every producer consumes before doing work.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/realtyhub/backend/internal/application/adapter"
	"github.com/realtyhub/backend/internal/domain/entity"
	"github.com/realtyhub/backend/internal/infra/metrics"
)

// Actor kinds used in bucket keys.
const (
	ActorIP   = "ip"
	ActorUser = "user"
)

// Policy is the window/limit pair owned by one route.
type Policy struct {
	Route  string
	Window time.Duration
	Limit  int
}

// Key builds the bucket key route:<name>|<actor-kind>:<actor-id>.
func (p Policy) Key(actorKind, actorID string) string {
	return fmt.Sprintf("route:%s|%s:%s", p.Route, actorKind, actorID)
}

var (
	PasswordResetPolicy      = Policy{Route: "password-reset", Window: time.Minute, Limit: 3}
	EmailCampaignPolicy      = Policy{Route: "email-campaign", Window: time.Minute, Limit: 2}
	ReverseProspectingPolicy = Policy{Route: "reverse-prospecting", Window: time.Minute, Limit: 5}
	ShowingRequestPolicy     = Policy{Route: "showing-request", Window: time.Minute, Limit: 10}
)

// Limiter consumes fixed-window counters from a RateLimitStore.
type Limiter struct {
	store   adapter.RateLimitStore
	clock   entity.Clock
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewLimiter creates a new Limiter. metrics may be nil.
func NewLimiter(store adapter.RateLimitStore, clock entity.Clock, logger *zap.Logger, m *metrics.Metrics) *Limiter {
	if clock == nil {
		clock = entity.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Limiter{
		store:   store,
		clock:   clock,
		logger:  logger,
		metrics: m,
	}
}

// Consume counts one request for the actor under policy.
// It never fails: when the store errors the request is allowed.
func (l *Limiter) Consume(ctx context.Context, policy Policy, actorKind, actorID string) *entity.RateLimitDecision {
	now := l.clock.Now()
	key := policy.Key(actorKind, actorID)

	decision, err := l.store.Consume(ctx, key, policy.Window, policy.Limit, now)
	if err != nil {
		l.logger.Warn("rate limit store unavailable, allowing request",
			zap.String("key", key),
			zap.Error(err),
		)
		if l.metrics != nil {
			l.metrics.RateLimitFailOpen.Inc()
		}
		decision = &entity.RateLimitDecision{
			Allowed:      true,
			Remaining:    policy.Limit,
			ResetAt:      now.Add(policy.Window),
			CurrentCount: 0,
		}
	}

	if l.metrics != nil {
		outcome := "allowed"
		if !decision.Allowed {
			outcome = "rejected"
		}
		l.metrics.RateLimitDecisions.WithLabelValues(policy.Route, outcome).Inc()
	}

	if !decision.Allowed {
		l.logger.Info("rate limit exceeded",
			zap.String("key", key),
			zap.Time("reset_at", decision.ResetAt),
		)
	}

	return decision
}

// Now exposes the limiter clock so callers compute Retry-After against the same time source.
func (l *Limiter) Now() time.Time {
	return l.clock.Now()
}
