package entity

import (
	"time"

	"github.com/google/uuid"
)

// EmailEventType is the kind of entry appended to the event log.
type EmailEventType string

const (
	EmailEventSent           EmailEventType = "sent"
	EmailEventRetryScheduled EmailEventType = "retry_scheduled"
	EmailEventFailed         EmailEventType = "failed"
)

// EmailEvent is an immutable record of a job resolution.
type EmailEvent struct {
	ID        uuid.UUID
	JobID     uuid.UUID
	Event     EmailEventType
	Detail    map[string]interface{}
	CreatedAt time.Time
}

// NewEmailEvent creates an event for the given job.
func NewEmailEvent(jobID uuid.UUID, event EmailEventType, detail map[string]interface{}, now time.Time) *EmailEvent {
	if detail == nil {
		detail = map[string]interface{}{}
	}
	return &EmailEvent{
		ID:        uuid.New(),
		JobID:     jobID,
		Event:     event,
		Detail:    detail,
		CreatedAt: now,
	}
}
