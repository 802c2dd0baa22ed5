package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/realtyhub/backend/internal/domain/entity"
)

// ResetGrantModel represents the password_reset_tokens table.
// Only the SHA-256 of the token is stored.
type ResetGrantModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	TokenHash string    `gorm:"type:char(64);uniqueIndex;not null"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"`
	Email     string    `gorm:"type:varchar(255);not null"`
	ExpiresAt time.Time `gorm:"not null"`
	RevokedAt *time.Time
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the ResetGrantModel.
func (ResetGrantModel) TableName() string {
	return "password_reset_tokens"
}

// ToEntity converts the row to a grant. The plain token is not recoverable.
func (m *ResetGrantModel) ToEntity() *entity.ResetGrant {
	return &entity.ResetGrant{
		UserID:    m.UserID,
		Email:     m.Email,
		ExpiresAt: m.ExpiresAt,
	}
}
