// Package dto defines data transfer objects for API requests and responses.
package dto

import (
	"strings"

	"github.com/realtyhub/backend/internal/application/usecase/auth"
)

// ForgotPasswordRequest is the body of POST /auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResetPasswordRequest is the body of POST /auth/reset-password.
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// Input trims the token, which is often pasted from an email client.
func (r ResetPasswordRequest) Input() auth.ResetPasswordInput {
	return auth.ResetPasswordInput{
		Token:       strings.TrimSpace(r.Token),
		NewPassword: r.NewPassword,
	}
}

// MessageResponse is a plain confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
