// Package error defines domain-specific errors for the RealtyHub backend.
package error

import "errors"

// Outbox sentinels.
var (
	ErrEmailJobNotFound = errors.New("email job not found")

	// ErrLeaseLost means another run reclaimed the job before this one resolved it.
	// The resolution was not written.
	ErrLeaseLost = errors.New("email job lease lost")

	ErrInvalidRecipients = errors.New("no valid recipients")
)

// EmailErrorCode identifies an outbox or delivery failure.
// Format: EMAIL-XXYYYY, XX being the category.
type EmailErrorCode string

const (
	// Outbox storage (01).
	ErrCodeEmailQueueFailed EmailErrorCode = "EMAIL-010001"
	ErrCodeEmailJobNotFound EmailErrorCode = "EMAIL-010002"
	ErrCodeEmailClaimFailed EmailErrorCode = "EMAIL-010003"
	ErrCodeLeaseLost        EmailErrorCode = "EMAIL-010004"

	// Provider answers (02).
	ErrCodePermanentEmailFailure EmailErrorCode = "EMAIL-020002"
	ErrCodeTemporaryEmailFailure EmailErrorCode = "EMAIL-020003"

	// Payload contents (03).
	ErrCodeInvalidRecipients EmailErrorCode = "EMAIL-030001"
	ErrCodeInvalidPayload    EmailErrorCode = "EMAIL-030002"
)

// permanentCodes fail the same way on every attempt, so jobs carrying them are
// dead-lettered without retry.
var permanentCodes = map[EmailErrorCode]bool{
	ErrCodePermanentEmailFailure: true,
	ErrCodeInvalidRecipients:     true,
	ErrCodeInvalidPayload:        true,
}

// EmailError wraps a transport or outbox failure with a code.
type EmailError struct {
	Code    EmailErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *EmailError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *EmailError) Unwrap() error {
	return e.Err
}

// Permanent reports whether retrying the same job can never succeed.
func (e *EmailError) Permanent() bool {
	return permanentCodes[e.Code]
}

// NewEmailError creates a new EmailError with the given code and message.
func NewEmailError(code EmailErrorCode, message string, err error) *EmailError {
	return &EmailError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsPermanentEmailError reports whether any EmailError in err's chain is permanent.
func IsPermanentEmailError(err error) bool {
	var emailErr *EmailError
	return errors.As(err, &emailErr) && emailErr.Permanent()
}
