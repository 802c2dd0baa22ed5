// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/realtyhub/backend/internal/domain/entity"
)

// EmailQueueRepository defines the durable job store and its event log.
//
// Resolution methods (MarkSent, ScheduleRetry, MarkDeadLettered) only apply to a
// job still held under the claim token stamped on it by Claim or ClaimByID, and
// append their event in the same transaction as the status change.
type EmailQueueRepository interface {
	// Enqueue inserts a new queued job.
	Enqueue(ctx context.Context, job *entity.EmailJob) error

	// Claim atomically selects up to limit due jobs and marks them processing under a lease.
	Claim(ctx context.Context, limit int, lease time.Duration, now time.Time) ([]*entity.EmailJob, error)

	// ClaimByID claims a single queued job regardless of run_after.
	ClaimByID(ctx context.Context, id uuid.UUID, lease time.Duration, now time.Time) (*entity.EmailJob, error)

	// MarkSent resolves a claimed job as delivered.
	MarkSent(ctx context.Context, job *entity.EmailJob, claimToken uuid.UUID, event *entity.EmailEvent) error

	// ScheduleRetry returns a claimed job to the queue with its new run_after and attempts.
	ScheduleRetry(ctx context.Context, job *entity.EmailJob, claimToken uuid.UUID, event *entity.EmailEvent) error

	// MarkDeadLettered resolves a claimed job as permanently failed.
	MarkDeadLettered(ctx context.Context, job *entity.EmailJob, claimToken uuid.UUID, event *entity.EmailEvent) error

	// ReleaseExpiredLeases returns processing jobs whose lease lapsed to the queue.
	ReleaseExpiredLeases(ctx context.Context, now time.Time) (int64, error)

	// GetByID retrieves a specific job by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*entity.EmailJob, error)

	// ListEvents returns the event log of a job in insertion order.
	ListEvents(ctx context.Context, jobID uuid.UUID) ([]*entity.EmailEvent, error)

	// DeleteTerminalBefore removes sent and failed jobs processed before cutoff.
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
