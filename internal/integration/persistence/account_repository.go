package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/realtyhub/backend/internal/application/adapter"
	"github.com/realtyhub/backend/internal/domain/entity"
	domainerror "github.com/realtyhub/backend/internal/domain/error"
	"github.com/realtyhub/backend/internal/integration/persistence/model"
)

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates an account store backed by the users table.
func NewAccountRepository(db *gorm.DB) adapter.AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, user *entity.User) error {
	row := model.FromEntity(user)
	row.Email = entity.NormalizeEmail(row.Email)
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *accountRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.first(r.db.WithContext(ctx).Where("email = ?", entity.NormalizeEmail(email)))
}

// SetPasswordHash touches only the hash and the update time.
func (r *accountRepository) SetPasswordHash(ctx context.Context, id uuid.UUID, hash string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"password_hash": hash,
			"updated_at":    at.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerror.ErrUserNotFound
	}
	return nil
}

func (r *accountRepository) first(query *gorm.DB) (*entity.User, error) {
	var row model.UserModel
	if err := query.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerror.ErrUserNotFound
		}
		return nil, err
	}
	return row.ToEntity(), nil
}
