package adapters

import (
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/realtyhub/backend/internal/application/adapter"
	domainerror "github.com/realtyhub/backend/internal/domain/error"
)

// DefaultBcryptCost is used when the caller passes a non-positive cost.
const DefaultBcryptCost = 12

// bcrypt ignores everything past 72 bytes.
const (
	minPasswordBytes = 8
	maxPasswordBytes = 72
)

type bcryptHasher struct {
	cost int
}

// NewPasswordHasher returns a bcrypt hasher. Tests pass bcrypt.MinCost.
func NewPasswordHasher(cost int) adapter.PasswordHasher {
	if cost <= 0 {
		cost = DefaultBcryptCost
	}
	return bcryptHasher{cost: cost}
}

func (h bcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (h bcryptHasher) Matches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// CheckPolicy wants 8 to 72 bytes with at least one letter and one digit.
func (h bcryptHasher) CheckPolicy(password string) error {
	if n := len(password); n < minPasswordBytes || n > maxPasswordBytes {
		return domainerror.ErrWeakPassword
	}

	var letter, digit bool
	for _, r := range password {
		letter = letter || unicode.IsLetter(r)
		digit = digit || unicode.IsDigit(r)
	}
	if !letter || !digit {
		return domainerror.ErrWeakPassword
	}
	return nil
}
