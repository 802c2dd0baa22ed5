package persistence

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/realtyhub/backend/internal/domain/entity"
	domainerror "github.com/realtyhub/backend/internal/domain/error"
	"github.com/realtyhub/backend/internal/integration/persistence/model"
)

// ResetGrantRepository stores password reset grants keyed by token hash.
type ResetGrantRepository interface {
	Save(ctx context.Context, grant *entity.ResetGrant, now time.Time) error
	// FindActive returns the unrevoked grant for token, expired or not.
	FindActive(ctx context.Context, token string) (*entity.ResetGrant, error)
	RevokeForUser(ctx context.Context, userID uuid.UUID, at time.Time) error
}

type resetGrantRepository struct {
	db *gorm.DB
}

// NewResetGrantRepository creates a reset grant store.
func NewResetGrantRepository(db *gorm.DB) ResetGrantRepository {
	return &resetGrantRepository{db: db}
}

func (r *resetGrantRepository) Save(ctx context.Context, grant *entity.ResetGrant, now time.Time) error {
	return r.db.WithContext(ctx).Create(&model.ResetGrantModel{
		ID:        uuid.New(),
		TokenHash: hashResetToken(grant.Token),
		UserID:    grant.UserID,
		Email:     grant.Email,
		ExpiresAt: grant.ExpiresAt.UTC(),
		CreatedAt: now.UTC(),
	}).Error
}

func (r *resetGrantRepository) FindActive(ctx context.Context, token string) (*entity.ResetGrant, error) {
	var row model.ResetGrantModel
	err := r.db.WithContext(ctx).
		Where("token_hash = ? AND revoked_at IS NULL", hashResetToken(token)).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerror.ErrInvalidResetToken
	}
	if err != nil {
		return nil, err
	}

	grant := row.ToEntity()
	grant.Token = token
	return grant, nil
}

func (r *resetGrantRepository) RevokeForUser(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.ResetGrantModel{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", at.UTC()).Error
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
