// Package controller implements HTTP handlers for the API endpoints.
package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/realtyhub/backend/internal/application/usecase/auth"
	domainerror "github.com/realtyhub/backend/internal/domain/error"
	"github.com/realtyhub/backend/internal/integration/entrypoint/dto"
)

// AuthController serves the two halves of the password reset flow.
type AuthController struct {
	forgot *auth.ForgotPasswordUseCase
	reset  *auth.ResetPasswordUseCase
}

// NewAuthController creates a new auth controller instance.
func NewAuthController(forgot *auth.ForgotPasswordUseCase, reset *auth.ResetPasswordUseCase) *AuthController {
	return &AuthController{forgot: forgot, reset: reset}
}

// ForgotPassword handles POST /auth/forgot-password. The answer is the same
// for known and unknown addresses.
func (c *AuthController) ForgotPassword(ctx *gin.Context) {
	var req dto.ForgotPasswordRequest
	if !bindAuthRequest(ctx, &req, domainerror.ErrCodeInvalidEmail) {
		return
	}

	respondMessage(ctx, func(rc context.Context) (string, error) {
		out, err := c.forgot.Execute(rc, auth.ForgotPasswordInput{Email: req.Email})
		if err != nil {
			return "", err
		}
		return out.Message, nil
	})
}

// ResetPassword handles POST /auth/reset-password.
func (c *AuthController) ResetPassword(ctx *gin.Context) {
	var req dto.ResetPasswordRequest
	if !bindAuthRequest(ctx, &req, domainerror.ErrCodeMissingFields) {
		return
	}

	respondMessage(ctx, func(rc context.Context) (string, error) {
		out, err := c.reset.Execute(rc, req.Input())
		if err != nil {
			return "", err
		}
		return out.Message, nil
	})
}

func bindAuthRequest(ctx *gin.Context, req interface{}, code domainerror.AuthErrorCode) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Invalid request body",
			Code:    string(code),
			Details: err.Error(),
		})
		return false
	}
	return true
}

func respondMessage(ctx *gin.Context, run func(context.Context) (string, error)) {
	msg, err := run(ctx.Request.Context())
	if err == nil {
		ctx.JSON(http.StatusOK, dto.MessageResponse{Message: msg})
		return
	}

	var authErr *domainerror.AuthError
	if !errors.As(err, &authErr) {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "An internal error occurred"})
		return
	}

	status := http.StatusBadRequest
	if authErr.Code.Unauthenticated() {
		status = http.StatusUnauthorized
	}
	ctx.JSON(status, dto.ErrorResponse{
		Error: authErr.Message,
		Code:  string(authErr.Code),
	})
}
