// Package entity defines the core business entities for the domain layer.
package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EmailStatus represents the status of an email job in the queue.
type EmailStatus string

const (
	EmailStatusQueued     EmailStatus = "queued"
	EmailStatusProcessing EmailStatus = "processing"
	EmailStatusSent       EmailStatus = "sent"
	EmailStatusFailed     EmailStatus = "failed"
)

// DefaultMaxAttempts is used when a producer does not set its own retry budget.
const DefaultMaxAttempts = 5

// EmailTemplateType represents the name of a registered email template.
type EmailTemplateType string

const (
	TemplatePasswordReset      EmailTemplateType = "password_reset"
	TemplateShowingRequest     EmailTemplateType = "showing_request"
	TemplateReverseProspecting EmailTemplateType = "reverse_prospecting"
	TemplateHotSheetAlert      EmailTemplateType = "hot_sheet_alert"
	TemplateCampaign           EmailTemplateType = "campaign"
)

// Recipients holds the raw "to" value of a payload. Producers may send a single
// address, a delimiter-joined string or a list; normalization happens at dispatch.
type Recipients []string

// UnmarshalJSON accepts either a JSON string or an array of strings.
func (r *Recipients) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*r = Recipients{}
			return nil
		}
		*r = Recipients{single}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*r = Recipients(list)
	return nil
}

// MarshalJSON writes a single recipient as a plain string.
func (r Recipients) MarshalJSON() ([]byte, error) {
	if len(r) == 1 {
		return json.Marshal(r[0])
	}
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(r))
}

// EmailPayload is what a producer hands to the queue.
type EmailPayload struct {
	Provider  string                 `json:"provider"`
	Template  EmailTemplateType      `json:"template"`
	To        Recipients             `json:"to"`
	Subject   string                 `json:"subject"`
	HTML      string                 `json:"html,omitempty"`
	ReplyTo   string                 `json:"reply_to,omitempty"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// EmailJob represents one unit of outbound email work with its own retry state.
type EmailJob struct {
	ID                uuid.UUID
	Payload           EmailPayload
	Status            EmailStatus
	Attempts          int
	MaxAttempts       int
	LastError         string
	ClaimToken        *uuid.UUID
	LeaseExpiresAt    *time.Time
	ProviderMessageID string
	CreatedAt         time.Time
	RunAfter          time.Time
	UpdatedAt         time.Time
	ProcessedAt       *time.Time
}

// NewEmailJob creates a queued job that becomes eligible at runAfter.
func NewEmailJob(payload EmailPayload, runAfter time.Time, maxAttempts int) *EmailJob {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	now := time.Now().UTC()
	if runAfter.IsZero() {
		runAfter = now
	}
	return &EmailJob{
		ID:          uuid.New(),
		Payload:     payload,
		Status:      EmailStatusQueued,
		Attempts:    0,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		RunAfter:    runAfter.UTC(),
		UpdatedAt:   now,
	}
}

// IsTerminal reports whether the job reached sent or failed.
func (e *EmailJob) IsTerminal() bool {
	return e.Status == EmailStatusSent || e.Status == EmailStatusFailed
}

// CanRetry returns true if another failure would still be rescheduled.
func (e *EmailJob) CanRetry() bool {
	return e.Attempts < e.MaxAttempts
}

// MarkSent marks the email job as successfully sent.
func (e *EmailJob) MarkSent(providerMessageID string, now time.Time) {
	if e.IsTerminal() {
		return
	}
	e.Status = EmailStatusSent
	e.ProviderMessageID = providerMessageID
	e.ClaimToken = nil
	e.LeaseExpiresAt = nil
	e.UpdatedAt = now
	e.ProcessedAt = &now
}

// ScheduleRetry puts the job back in the queue after delay. run_after never moves backward.
func (e *EmailJob) ScheduleRetry(err error, delay time.Duration, now time.Time) {
	if e.IsTerminal() {
		return
	}
	next := now.Add(delay)
	if next.After(e.RunAfter) {
		e.RunAfter = next
	}
	e.Attempts++
	if e.Attempts > e.MaxAttempts {
		e.Attempts = e.MaxAttempts
	}
	e.LastError = err.Error()
	e.Status = EmailStatusQueued
	e.ClaimToken = nil
	e.LeaseExpiresAt = nil
	e.UpdatedAt = now
}

// MarkDeadLettered moves the job to its terminal failed state.
func (e *EmailJob) MarkDeadLettered(err error, now time.Time) {
	if e.IsTerminal() {
		return
	}
	e.Status = EmailStatusFailed
	e.LastError = err.Error()
	e.ClaimToken = nil
	e.LeaseExpiresAt = nil
	e.UpdatedAt = now
	e.ProcessedAt = &now
}

// IsReadyToProcess returns true if the job is queued and due.
func (e *EmailJob) IsReadyToProcess(now time.Time) bool {
	return e.Status == EmailStatusQueued && !e.RunAfter.After(now)
}
