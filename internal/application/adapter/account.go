package adapter

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/realtyhub/backend/internal/domain/entity"
)

// AccountRepository is the slice of the account store the reset flow needs.
// Lookups return domainerror.ErrUserNotFound when nothing matches.
type AccountRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	// FindByEmail matches the normalized address.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	SetPasswordHash(ctx context.Context, id uuid.UUID, hash string, at time.Time) error
}

// PasswordHasher turns new passwords into stored hashes and enforces the password policy.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Matches(hash, password string) bool
	// CheckPolicy returns domainerror.ErrWeakPassword for unacceptable passwords.
	CheckPolicy(password string) error
}
