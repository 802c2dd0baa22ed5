package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimitDecision_RetryAfterSeconds(t *testing.T) {
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		gap      time.Duration
		expected int
	}{
		{"whole seconds", 17 * time.Second, 17},
		{"fraction rounds up", 16200 * time.Millisecond, 17},
		{"just past a second", time.Second + time.Nanosecond, 2},
		{"under one second", 300 * time.Millisecond, 1},
		{"window already over", 0, 1},
		{"reset in the past", -5 * time.Second, 1},
		{"full window", time.Hour, 3600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &RateLimitDecision{ResetAt: now.Add(tt.gap)}
			assert.Equal(t, tt.expected, d.RetryAfterSeconds(now))
		})
	}
}
