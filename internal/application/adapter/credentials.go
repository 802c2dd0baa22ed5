package adapter

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/realtyhub/backend/internal/domain/entity"
)

// AccessClaims identifies the caller of an authenticated request.
type AccessClaims struct {
	UserID    uuid.UUID
	Email     string
	Role      entity.UserRole
	ExpiresAt time.Time
}

// AccessTokens signs and verifies bearer tokens. Accounts sign in through the
// identity provider; Issue exists for internal tooling and tests.
type AccessTokens interface {
	Issue(claims AccessClaims, ttl time.Duration) (string, error)
	Verify(ctx context.Context, token string) (*AccessClaims, error)
}

// ResetGrants issues and redeems password reset grants.
type ResetGrants interface {
	Issue(ctx context.Context, user *entity.User) (*entity.ResetGrant, error)
	// Lookup returns domainerror.ErrInvalidResetToken for unknown or revoked tokens.
	// Expired grants are returned so the caller can report them distinctly.
	Lookup(ctx context.Context, token string) (*entity.ResetGrant, error)
	RevokeAll(ctx context.Context, userID uuid.UUID) error
}
