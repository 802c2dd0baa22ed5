package error

import "errors"

// Rate limiting errors.
var (
	// ErrRateLimited is returned when a caller exhausted its window.
	ErrRateLimited = errors.New("too many requests")

	// ErrRateLimitStore is returned when the counter store could not answer.
	ErrRateLimitStore = errors.New("rate limit store unavailable")
)

// RateLimitErrorCode defines error codes for rate limiting.
type RateLimitErrorCode string

const (
	ErrCodeRateLimited      RateLimitErrorCode = "RATE-010001"
	ErrCodeRateLimitStore   RateLimitErrorCode = "RATE-010002"
	ErrCodeInvalidRateLimit RateLimitErrorCode = "RATE-010003"
)

// RateLimitError represents a rate limiter failure with code and message.
type RateLimitError struct {
	Code    RateLimitErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError creates a new RateLimitError.
func NewRateLimitError(code RateLimitErrorCode, message string, err error) *RateLimitError {
	return &RateLimitError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
