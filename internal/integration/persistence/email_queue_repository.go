// Package persistence implements repository interfaces for database operations.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/realtyhub/backend/internal/application/adapter"
	"github.com/realtyhub/backend/internal/domain/entity"
	domainerror "github.com/realtyhub/backend/internal/domain/error"
	"github.com/realtyhub/backend/internal/integration/persistence/model"
)

// emailQueueRepository implements the adapter.EmailQueueRepository interface.
type emailQueueRepository struct {
	db *gorm.DB
}

// NewEmailQueueRepository creates a new email queue repository instance.
func NewEmailQueueRepository(db *gorm.DB) adapter.EmailQueueRepository {
	return &emailQueueRepository{
		db: db,
	}
}

// Enqueue adds a new email job to the queue.
func (r *emailQueueRepository) Enqueue(ctx context.Context, job *entity.EmailJob) error {
	jobModel, err := model.EmailJobModelFromEntity(job)
	if err != nil {
		return domainerror.NewEmailError(
			domainerror.ErrCodeInvalidPayload,
			"failed to encode email payload",
			err,
		)
	}

	if err := r.db.WithContext(ctx).Create(jobModel).Error; err != nil {
		return domainerror.NewEmailError(
			domainerror.ErrCodeEmailQueueFailed,
			"failed to create email job",
			err,
		)
	}
	return nil
}

// Claim selects due jobs and marks them processing in one UPDATE statement.
// The rows are stamped with a fresh claim token and read back by that token,
// so two concurrent callers can never receive the same job.
func (r *emailQueueRepository) Claim(ctx context.Context, limit int, lease time.Duration, now time.Time) ([]*entity.EmailJob, error) {
	if limit <= 0 {
		return nil, nil
	}

	db := r.db.WithContext(ctx)
	token := uuid.New()
	now = now.UTC()
	leaseExpiresAt := now.Add(lease)

	due := db.Model(&model.EmailJobModel{}).
		Select("id").
		Where("status = ?", entity.EmailStatusQueued).
		Where("run_after <= ?", now).
		Order("run_after ASC").
		Limit(limit)
	if r.supportsSkipLocked() {
		due = due.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
	}

	result := db.Model(&model.EmailJobModel{}).
		Where("id IN (?)", due).
		Where("status = ?", entity.EmailStatusQueued).
		Updates(map[string]interface{}{
			"status":           entity.EmailStatusProcessing,
			"claim_token":      token,
			"lease_expires_at": leaseExpiresAt,
			"updated_at":       now,
		})
	if result.Error != nil {
		return nil, domainerror.NewEmailError(
			domainerror.ErrCodeEmailClaimFailed,
			"failed to claim email jobs",
			result.Error,
		)
	}

	if result.RowsAffected == 0 {
		return []*entity.EmailJob{}, nil
	}

	return r.findByClaimToken(ctx, token)
}

// ClaimByID claims a single queued job, ignoring run_after.
func (r *emailQueueRepository) ClaimByID(ctx context.Context, id uuid.UUID, lease time.Duration, now time.Time) (*entity.EmailJob, error) {
	token := uuid.New()
	now = now.UTC()

	result := r.db.WithContext(ctx).
		Model(&model.EmailJobModel{}).
		Where("id = ? AND status = ?", id, entity.EmailStatusQueued).
		Updates(map[string]interface{}{
			"status":           entity.EmailStatusProcessing,
			"claim_token":      token,
			"lease_expires_at": now.Add(lease),
			"updated_at":       now,
		})
	if result.Error != nil {
		return nil, domainerror.NewEmailError(
			domainerror.ErrCodeEmailClaimFailed,
			"failed to claim email job",
			result.Error,
		)
	}
	if result.RowsAffected == 0 {
		return nil, domainerror.ErrEmailJobNotFound
	}

	jobs, err := r.findByClaimToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, domainerror.ErrEmailJobNotFound
	}
	return jobs[0], nil
}

// MarkSent resolves a claimed job as delivered.
func (r *emailQueueRepository) MarkSent(ctx context.Context, job *entity.EmailJob, claimToken uuid.UUID, event *entity.EmailEvent) error {
	updates := map[string]interface{}{
		"status":              entity.EmailStatusSent,
		"provider_message_id": job.ProviderMessageID,
		"claim_token":         nil,
		"lease_expires_at":    nil,
		"updated_at":          job.UpdatedAt.UTC(),
		"processed_at":        processedAt(job),
	}
	return r.resolve(ctx, job.ID, claimToken, updates, event)
}

// ScheduleRetry returns a claimed job to the queue.
func (r *emailQueueRepository) ScheduleRetry(ctx context.Context, job *entity.EmailJob, claimToken uuid.UUID, event *entity.EmailEvent) error {
	updates := map[string]interface{}{
		"status":           entity.EmailStatusQueued,
		"attempts":         job.Attempts,
		"run_after":        job.RunAfter.UTC(),
		"last_error":       job.LastError,
		"claim_token":      nil,
		"lease_expires_at": nil,
		"updated_at":       job.UpdatedAt.UTC(),
	}
	return r.resolve(ctx, job.ID, claimToken, updates, event)
}

// MarkDeadLettered resolves a claimed job as permanently failed.
func (r *emailQueueRepository) MarkDeadLettered(ctx context.Context, job *entity.EmailJob, claimToken uuid.UUID, event *entity.EmailEvent) error {
	updates := map[string]interface{}{
		"status":           entity.EmailStatusFailed,
		"last_error":       job.LastError,
		"claim_token":      nil,
		"lease_expires_at": nil,
		"updated_at":       job.UpdatedAt.UTC(),
		"processed_at":     processedAt(job),
	}
	return r.resolve(ctx, job.ID, claimToken, updates, event)
}

// ReleaseExpiredLeases returns processing jobs whose lease lapsed to the queue.
func (r *emailQueueRepository) ReleaseExpiredLeases(ctx context.Context, now time.Time) (int64, error) {
	now = now.UTC()
	result := r.db.WithContext(ctx).
		Model(&model.EmailJobModel{}).
		Where("status = ?", entity.EmailStatusProcessing).
		Where("lease_expires_at <= ?", now).
		Updates(map[string]interface{}{
			"status":           entity.EmailStatusQueued,
			"claim_token":      nil,
			"lease_expires_at": nil,
			"updated_at":       now,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to release expired leases: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// GetByID retrieves a specific job by its ID.
func (r *emailQueueRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.EmailJob, error) {
	var jobModel model.EmailJobModel
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&jobModel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domainerror.ErrEmailJobNotFound
		}
		return nil, result.Error
	}
	return jobModel.ToEntity()
}

// ListEvents returns the event log of a job in insertion order.
func (r *emailQueueRepository) ListEvents(ctx context.Context, jobID uuid.UUID) ([]*entity.EmailEvent, error) {
	var models []model.EmailEventModel
	result := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at ASC").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	events := make([]*entity.EmailEvent, len(models))
	for i := range models {
		events[i] = models[i].ToEntity()
	}
	return events, nil
}

// DeleteTerminalBefore removes sent and failed jobs processed before cutoff.
func (r *emailQueueRepository) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status IN ?", []entity.EmailStatus{entity.EmailStatusSent, entity.EmailStatusFailed}).
		Where("processed_at < ?", cutoff.UTC()).
		Delete(&model.EmailJobModel{})

	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

// resolve applies a terminal or retry transition and appends its event atomically.
// The update only matches while the job is still held under claimToken.
func (r *emailQueueRepository) resolve(ctx context.Context, id, claimToken uuid.UUID, updates map[string]interface{}, event *entity.EmailEvent) error {
	eventModel, err := model.EmailEventModelFromEntity(event)
	if err != nil {
		return fmt.Errorf("failed to encode email event: %w", err)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.EmailJobModel{}).
			Where("id = ? AND status = ? AND claim_token = ?", id, entity.EmailStatusProcessing, claimToken).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerror.NewEmailError(
				domainerror.ErrCodeLeaseLost,
				"email job is no longer held by this claim",
				domainerror.ErrLeaseLost,
			)
		}

		return tx.Create(eventModel).Error
	})
}

func (r *emailQueueRepository) findByClaimToken(ctx context.Context, token uuid.UUID) ([]*entity.EmailJob, error) {
	var models []model.EmailJobModel
	result := r.db.WithContext(ctx).
		Where("claim_token = ?", token).
		Order("run_after ASC").
		Find(&models)
	if result.Error != nil {
		return nil, domainerror.NewEmailError(
			domainerror.ErrCodeEmailClaimFailed,
			"failed to load claimed email jobs",
			result.Error,
		)
	}

	jobs := make([]*entity.EmailJob, 0, len(models))
	for i := range models {
		job, err := models[i].ToEntity()
		if err != nil {
			// Keep the row so the dispatcher can dead-letter it instead of leaving it claimed.
			job = &entity.EmailJob{
				ID:          models[i].ID,
				Status:      entity.EmailStatus(models[i].Status),
				Attempts:    models[i].Attempts,
				MaxAttempts: models[i].MaxAttempts,
				ClaimToken:  models[i].ClaimToken,
				RunAfter:    models[i].RunAfter.UTC(),
				CreatedAt:   models[i].CreatedAt.UTC(),
				Payload:     entity.EmailPayload{Template: entity.EmailTemplateType(models[i].Template)},
				LastError:   "undecodable payload: " + err.Error(),
			}
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (r *emailQueueRepository) supportsSkipLocked() bool {
	return r.db.Dialector.Name() == "postgres"
}

func processedAt(job *entity.EmailJob) interface{} {
	if job.ProcessedAt == nil {
		return job.UpdatedAt.UTC()
	}
	return job.ProcessedAt.UTC()
}
