package email

import "time"

const (
	retryBaseDelay = 30 * time.Second
	retryMaxDelay  = time.Hour
)

// Backoff returns the delay before the next attempt: min(1h, 30s * 2^attempts).
func Backoff(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	// 30s << 7 already exceeds the cap; larger shifts would overflow.
	if attempts >= 7 {
		return retryMaxDelay
	}
	delay := retryBaseDelay << uint(attempts)
	if delay > retryMaxDelay {
		return retryMaxDelay
	}
	return delay
}
