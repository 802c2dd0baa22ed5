package error

import "errors"

// Account and credential errors.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidToken      = errors.New("invalid token")
	ErrExpiredToken      = errors.New("token has expired")
	ErrInvalidResetToken = errors.New("invalid or expired password reset token")
	ErrWeakPassword      = errors.New("password does not meet minimum requirements")
	ErrInvalidEmail      = errors.New("invalid email format")
)

// AuthErrorCode identifies an account or credential failure.
// Format: AUTH-XXYYYY, XX being the category.
type AuthErrorCode string

const (
	// Request input (01).
	ErrCodeMissingFields AuthErrorCode = "AUTH-010001"
	ErrCodeInvalidEmail  AuthErrorCode = "AUTH-010002"
	ErrCodeWeakPassword  AuthErrorCode = "AUTH-010003"

	// Caller identity (02).
	ErrCodeMissingToken AuthErrorCode = "AUTH-020001"
	ErrCodeInvalidToken AuthErrorCode = "AUTH-020002"
	ErrCodeForbidden    AuthErrorCode = "AUTH-020003"

	// Password reset grants (03).
	ErrCodeInvalidResetToken AuthErrorCode = "AUTH-030001"
	ErrCodeExpiredResetToken AuthErrorCode = "AUTH-030002"
)

// Unauthenticated reports whether the code describes a missing or rejected caller
// identity rather than a bad request.
func (c AuthErrorCode) Unauthenticated() bool {
	return len(c) > 7 && c[:7] == "AUTH-02"
}

// AuthError carries a code and a message safe to show to the caller.
type AuthError struct {
	Code    AuthErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError creates a new AuthError with the given code and message.
func NewAuthError(code AuthErrorCode, message string, err error) *AuthError {
	return &AuthError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
