package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/realtyhub/backend/internal/application/adapter"
	"github.com/realtyhub/backend/internal/domain/entity"
	domainerror "github.com/realtyhub/backend/internal/domain/error"
)

// ResetPasswordMessage confirms a successful reset.
const ResetPasswordMessage = "Password has been successfully reset"

// ResetPasswordInput is the body of POST /auth/reset-password.
type ResetPasswordInput struct {
	Token       string
	NewPassword string
}

// ResetPasswordOutput confirms the reset.
type ResetPasswordOutput struct {
	Message string
}

// ResetPasswordUseCase redeems a reset grant for a new password.
type ResetPasswordUseCase struct {
	accounts adapter.AccountRepository
	hasher   adapter.PasswordHasher
	grants   adapter.ResetGrants
	clock    entity.Clock
	logger   *zap.Logger
}

// NewResetPasswordUseCase creates a ResetPasswordUseCase. A nil clock means wall time.
func NewResetPasswordUseCase(
	accounts adapter.AccountRepository,
	hasher adapter.PasswordHasher,
	grants adapter.ResetGrants,
	clock entity.Clock,
	logger *zap.Logger,
) *ResetPasswordUseCase {
	if clock == nil {
		clock = entity.SystemClock{}
	}
	return &ResetPasswordUseCase{
		accounts: accounts,
		hasher:   hasher,
		grants:   grants,
		clock:    clock,
		logger:   logger,
	}
}

// Execute checks the grant, then the password policy. Every grant of the user
// is revoked once the new hash is stored.
func (uc *ResetPasswordUseCase) Execute(ctx context.Context, input ResetPasswordInput) (*ResetPasswordOutput, error) {
	if input.Token == "" || input.NewPassword == "" {
		return nil, domainerror.NewAuthError(
			domainerror.ErrCodeMissingFields,
			"token and new password are required",
			nil,
		)
	}

	grant, err := uc.grants.Lookup(ctx, input.Token)
	if err != nil {
		if !errors.Is(err, domainerror.ErrInvalidResetToken) {
			uc.logger.Error("failed to look up reset grant", zap.Error(err))
		}
		return nil, domainerror.NewAuthError(
			domainerror.ErrCodeInvalidResetToken,
			"invalid or expired password reset token",
			domainerror.ErrInvalidResetToken,
		)
	}

	now := uc.clock.Now()
	if grant.Expired(now) {
		return nil, domainerror.NewAuthError(
			domainerror.ErrCodeExpiredResetToken,
			"password reset token has expired",
			domainerror.ErrInvalidResetToken,
		)
	}

	if err := uc.hasher.CheckPolicy(input.NewPassword); err != nil {
		return nil, domainerror.NewAuthError(
			domainerror.ErrCodeWeakPassword,
			"password must be 8 to 72 characters and contain a letter and a digit",
			domainerror.ErrWeakPassword,
		)
	}

	hash, err := uc.hasher.Hash(input.NewPassword)
	if err != nil {
		return nil, err
	}

	if err := uc.accounts.SetPasswordHash(ctx, grant.UserID, hash, now); err != nil {
		if errors.Is(err, domainerror.ErrUserNotFound) {
			return nil, domainerror.NewAuthError(
				domainerror.ErrCodeInvalidResetToken,
				"invalid or expired password reset token",
				domainerror.ErrInvalidResetToken,
			)
		}
		return nil, fmt.Errorf("failed to store new password: %w", err)
	}

	if err := uc.grants.RevokeAll(ctx, grant.UserID); err != nil {
		uc.logger.Warn("password changed but reset grants were not revoked",
			zap.String("user_id", grant.UserID.String()),
			zap.Error(err),
		)
	}

	uc.logger.Info("password reset", zap.String("user_id", grant.UserID.String()))
	return &ResetPasswordOutput{Message: ResetPasswordMessage}, nil
}
