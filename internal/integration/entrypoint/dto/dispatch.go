package dto

import (
	"time"

	"github.com/realtyhub/backend/internal/domain/entity"
)

// EmailJobResponse represents a queued email job with its event log.
type EmailJobResponse struct {
	ID                string               `json:"id"`
	Status            string               `json:"status"`
	Template          string               `json:"template"`
	Provider          string               `json:"provider"`
	To                []string             `json:"to"`
	Subject           string               `json:"subject"`
	Attempts          int                  `json:"attempts"`
	MaxAttempts       int                  `json:"max_attempts"`
	LastError         string               `json:"last_error,omitempty"`
	ProviderMessageID string               `json:"provider_message_id,omitempty"`
	RunAfter          time.Time            `json:"run_after"`
	CreatedAt         time.Time            `json:"created_at"`
	ProcessedAt       *time.Time           `json:"processed_at,omitempty"`
	Events            []EmailEventResponse `json:"events"`
}

// EmailEventResponse represents one resolution recorded for a job.
type EmailEventResponse struct {
	Event     string                 `json:"event"`
	Detail    map[string]interface{} `json:"detail"`
	CreatedAt time.Time              `json:"created_at"`
}

// ToEmailJobResponse converts a job and its events to a response.
func ToEmailJobResponse(job *entity.EmailJob, events []*entity.EmailEvent) EmailJobResponse {
	resp := EmailJobResponse{
		ID:                job.ID.String(),
		Status:            string(job.Status),
		Template:          string(job.Payload.Template),
		Provider:          job.Payload.Provider,
		To:                []string(job.Payload.To),
		Subject:           job.Payload.Subject,
		Attempts:          job.Attempts,
		MaxAttempts:       job.MaxAttempts,
		LastError:         job.LastError,
		ProviderMessageID: job.ProviderMessageID,
		RunAfter:          job.RunAfter,
		CreatedAt:         job.CreatedAt,
		ProcessedAt:       job.ProcessedAt,
		Events:            make([]EmailEventResponse, 0, len(events)),
	}
	for _, e := range events {
		resp.Events = append(resp.Events, EmailEventResponse{
			Event:     string(e.Event),
			Detail:    e.Detail,
			CreatedAt: e.CreatedAt,
		})
	}
	return resp
}
