// Package model defines database models for persistence layer.
package model

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/realtyhub/backend/internal/domain/entity"
)

// EmailJobModel represents the email_jobs table in the database.
type EmailJobModel struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Provider          string     `gorm:"type:varchar(50);not null;default:''"`
	Template          string     `gorm:"type:varchar(100);not null;index"`
	Payload           string     `gorm:"type:jsonb;not null;default:'{}'"`
	Status            string     `gorm:"type:varchar(20);not null;default:'queued';index:idx_email_jobs_due,priority:1"`
	RunAfter          time.Time  `gorm:"not null;index:idx_email_jobs_due,priority:2"`
	Attempts          int        `gorm:"not null;default:0"`
	MaxAttempts       int        `gorm:"not null;default:5"`
	LastError         string     `gorm:"type:text"`
	ClaimToken        *uuid.UUID `gorm:"type:uuid;index"`
	LeaseExpiresAt    *time.Time
	ProviderMessageID string    `gorm:"type:varchar(255)"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
	ProcessedAt       sql.NullTime
}

// TableName returns the table name for the EmailJobModel.
func (EmailJobModel) TableName() string {
	return "email_jobs"
}

// ToEntity converts an EmailJobModel to a domain EmailJob entity.
func (m *EmailJobModel) ToEntity() (*entity.EmailJob, error) {
	var payload entity.EmailPayload
	if m.Payload != "" {
		if err := json.Unmarshal([]byte(m.Payload), &payload); err != nil {
			return nil, err
		}
	}

	var processedAt *time.Time
	if m.ProcessedAt.Valid {
		t := m.ProcessedAt.Time.UTC()
		processedAt = &t
	}

	var leaseExpiresAt *time.Time
	if m.LeaseExpiresAt != nil {
		t := m.LeaseExpiresAt.UTC()
		leaseExpiresAt = &t
	}

	return &entity.EmailJob{
		ID:                m.ID,
		Payload:           payload,
		Status:            entity.EmailStatus(m.Status),
		Attempts:          m.Attempts,
		MaxAttempts:       m.MaxAttempts,
		LastError:         m.LastError,
		ClaimToken:        m.ClaimToken,
		LeaseExpiresAt:    leaseExpiresAt,
		ProviderMessageID: m.ProviderMessageID,
		CreatedAt:         m.CreatedAt.UTC(),
		RunAfter:          m.RunAfter.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
		ProcessedAt:       processedAt,
	}, nil
}

// EmailJobModelFromEntity creates an EmailJobModel from a domain EmailJob entity.
func EmailJobModelFromEntity(job *entity.EmailJob) (*EmailJobModel, error) {
	payloadJSON, err := json.Marshal(job.Payload)
	if err != nil {
		return nil, err
	}

	var processedAt sql.NullTime
	if job.ProcessedAt != nil {
		processedAt = sql.NullTime{Time: *job.ProcessedAt, Valid: true}
	}

	return &EmailJobModel{
		ID:                job.ID,
		Provider:          job.Payload.Provider,
		Template:          string(job.Payload.Template),
		Payload:           string(payloadJSON),
		Status:            string(job.Status),
		RunAfter:          job.RunAfter.UTC(),
		Attempts:          job.Attempts,
		MaxAttempts:       job.MaxAttempts,
		LastError:         job.LastError,
		ClaimToken:        job.ClaimToken,
		LeaseExpiresAt:    job.LeaseExpiresAt,
		ProviderMessageID: job.ProviderMessageID,
		CreatedAt:         job.CreatedAt.UTC(),
		UpdatedAt:         job.UpdatedAt.UTC(),
		ProcessedAt:       processedAt,
	}, nil
}

// EmailEventModel represents the append-only email_events table.
type EmailEventModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	JobID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Event     string    `gorm:"type:varchar(30);not null"`
	Detail    string    `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt time.Time `gorm:"not null;index"`
}

// TableName returns the table name for the EmailEventModel.
func (EmailEventModel) TableName() string {
	return "email_events"
}

// ToEntity converts an EmailEventModel to a domain EmailEvent.
func (m *EmailEventModel) ToEntity() *entity.EmailEvent {
	detail := map[string]interface{}{}
	if m.Detail != "" {
		// Detail is written by EmailEventModelFromEntity; a decode failure leaves it empty.
		_ = json.Unmarshal([]byte(m.Detail), &detail)
	}
	return &entity.EmailEvent{
		ID:        m.ID,
		JobID:     m.JobID,
		Event:     entity.EmailEventType(m.Event),
		Detail:    detail,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

// EmailEventModelFromEntity creates an EmailEventModel from a domain EmailEvent.
func EmailEventModelFromEntity(event *entity.EmailEvent) (*EmailEventModel, error) {
	detailJSON, err := json.Marshal(event.Detail)
	if err != nil {
		return nil, err
	}
	return &EmailEventModel{
		ID:        event.ID,
		JobID:     event.JobID,
		Event:     string(event.Event),
		Detail:    string(detailJSON),
		CreatedAt: event.CreatedAt.UTC(),
	}, nil
}
