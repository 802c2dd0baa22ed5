// Package auth contains the password reset use cases.
package auth

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/realtyhub/backend/internal/application/adapter"
	domainerror "github.com/realtyhub/backend/internal/domain/error"
)

// ForgotPasswordMessage is the answer to every well-formed request, whether or
// not the account exists.
const ForgotPasswordMessage = "If an account with that email exists, we have sent a password reset link"

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ForgotPasswordInput is the body of POST /auth/forgot-password.
type ForgotPasswordInput struct {
	Email string
}

// ForgotPasswordOutput carries the uniform answer.
type ForgotPasswordOutput struct {
	Message string
}

// ForgotPasswordUseCase issues a reset grant and queues the link for delivery.
type ForgotPasswordUseCase struct {
	accounts   adapter.AccountRepository
	grants     adapter.ResetGrants
	emails     adapter.EmailService
	resetPage  string
	linkExpiry string
	logger     *zap.Logger
}

// NewForgotPasswordUseCase builds reset links as <appBaseURL>/reset-password?token=...
// linkTTL only feeds the wording of the email.
func NewForgotPasswordUseCase(
	accounts adapter.AccountRepository,
	grants adapter.ResetGrants,
	emails adapter.EmailService,
	appBaseURL string,
	linkTTL time.Duration,
	logger *zap.Logger,
) *ForgotPasswordUseCase {
	return &ForgotPasswordUseCase{
		accounts:   accounts,
		grants:     grants,
		emails:     emails,
		resetPage:  strings.TrimRight(appBaseURL, "/") + "/reset-password",
		linkExpiry: describeTTL(linkTTL),
		logger:     logger,
	}
}

// Execute only fails on a malformed address. Lookup, grant and queue failures
// are logged and hidden behind ForgotPasswordMessage.
func (uc *ForgotPasswordUseCase) Execute(ctx context.Context, input ForgotPasswordInput) (*ForgotPasswordOutput, error) {
	address := strings.TrimSpace(input.Email)
	if !emailPattern.MatchString(address) {
		return nil, domainerror.NewAuthError(
			domainerror.ErrCodeInvalidEmail,
			"invalid email format",
			domainerror.ErrInvalidEmail,
		)
	}

	if err := uc.sendResetLink(ctx, address); err != nil {
		uc.logger.Warn("password reset link not sent", zap.Error(err))
	}
	return &ForgotPasswordOutput{Message: ForgotPasswordMessage}, nil
}

func (uc *ForgotPasswordUseCase) sendResetLink(ctx context.Context, address string) error {
	user, err := uc.accounts.FindByEmail(ctx, address)
	if err != nil {
		return fmt.Errorf("lookup: %w", err)
	}

	grant, err := uc.grants.Issue(ctx, user)
	if err != nil {
		return fmt.Errorf("user %s: %w", user.ID, err)
	}

	err = uc.emails.QueuePasswordResetEmail(ctx, adapter.QueuePasswordResetInput{
		UserID:    user.ID.String(),
		UserEmail: user.Email,
		UserName:  user.DisplayName(),
		ResetURL:  uc.resetPage + "?token=" + url.QueryEscape(grant.Token),
		ExpiresIn: uc.linkExpiry,
	})
	if err != nil {
		return fmt.Errorf("user %s: %w", user.ID, err)
	}

	uc.logger.Info("password reset email queued", zap.String("user_id", user.ID.String()))
	return nil
}

func describeTTL(ttl time.Duration) string {
	switch {
	case ttl <= 0, ttl == time.Hour:
		return "1 hour"
	case ttl%time.Hour == 0:
		return fmt.Sprintf("%d hours", ttl/time.Hour)
	default:
		return fmt.Sprintf("%d minutes", ttl/time.Minute)
	}
}
