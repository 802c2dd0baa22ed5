package entity

import (
	"math"
	"time"
)

// RateLimitCounter is the fixed-window counter stored per caller identity.
type RateLimitCounter struct {
	Key           string
	WindowStart   time.Time
	Count         int
	Limit         int
	WindowSeconds int
}

// ResetAt returns the end of the counter's current window.
func (c *RateLimitCounter) ResetAt() time.Time {
	return c.WindowStart.Add(time.Duration(c.WindowSeconds) * time.Second)
}

// Decision converts the counter state after a consume into a decision.
// The counter saturates at Limit+1, so Count > Limit means the call was rejected.
func (c *RateLimitCounter) Decision() *RateLimitDecision {
	allowed := c.Count <= c.Limit
	remaining := c.Limit - c.Count
	if remaining < 0 || !allowed {
		remaining = 0
	}
	current := c.Count
	if current > c.Limit {
		current = c.Limit
	}
	return &RateLimitDecision{
		Allowed:      allowed,
		Remaining:    remaining,
		ResetAt:      c.ResetAt(),
		CurrentCount: current,
	}
}

// RateLimitDecision is the outcome of a consume call.
type RateLimitDecision struct {
	Allowed      bool      `json:"allowed"`
	Remaining    int       `json:"remaining"`
	ResetAt      time.Time `json:"reset_at"`
	CurrentCount int       `json:"current_count"`
}

// RetryAfterSeconds is max(1, ceil((reset_at - now) / 1s)).
func (d *RateLimitDecision) RetryAfterSeconds(now time.Time) int {
	seconds := int(math.Ceil(d.ResetAt.Sub(now).Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}
