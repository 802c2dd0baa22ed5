package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/realtyhub/backend/internal/domain/entity"
)

// RecipientList is stored as text[] on PostgreSQL and as the array literal on SQLite.
type RecipientList pq.StringArray

// Value implements driver.Valuer.
func (l RecipientList) Value() (driver.Value, error) {
	return pq.StringArray(l).Value()
}

// Scan implements sql.Scanner.
func (l *RecipientList) Scan(src interface{}) error {
	return (*pq.StringArray)(l).Scan(src)
}

// GormDataType returns the generic data type.
func (RecipientList) GormDataType() string {
	return "text"
}

// GormDBDataType returns the column type for the active dialect.
func (RecipientList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

// CampaignModel represents the email_campaigns table.
type CampaignModel struct {
	ID         uuid.UUID     `gorm:"type:uuid;primaryKey"`
	OwnerID    uuid.UUID     `gorm:"type:uuid;not null;index"`
	Subject    string        `gorm:"type:varchar(500);not null"`
	HTML       string        `gorm:"type:text;not null"`
	ReplyTo    string        `gorm:"type:varchar(255)"`
	Recipients RecipientList `gorm:"not null"`
	JobCount   int           `gorm:"not null;default:0"`
	CreatedAt  time.Time     `gorm:"not null"`
}

// TableName returns the table name for the CampaignModel.
func (CampaignModel) TableName() string {
	return "email_campaigns"
}

// ToEntity converts a CampaignModel to a domain Campaign.
func (m *CampaignModel) ToEntity() *entity.Campaign {
	return &entity.Campaign{
		ID:         m.ID,
		OwnerID:    m.OwnerID,
		Subject:    m.Subject,
		HTML:       m.HTML,
		ReplyTo:    m.ReplyTo,
		Recipients: []string(m.Recipients),
		JobCount:   m.JobCount,
		CreatedAt:  m.CreatedAt.UTC(),
	}
}

// CampaignModelFromEntity creates a CampaignModel from a domain Campaign.
func CampaignModelFromEntity(c *entity.Campaign) *CampaignModel {
	return &CampaignModel{
		ID:         c.ID,
		OwnerID:    c.OwnerID,
		Subject:    c.Subject,
		HTML:       c.HTML,
		ReplyTo:    c.ReplyTo,
		Recipients: RecipientList(c.Recipients),
		JobCount:   c.JobCount,
		CreatedAt:  c.CreatedAt,
	}
}
