// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"

	"github.com/realtyhub/backend/internal/domain/entity"
)

// OutboundEmail is a fully rendered message handed to a transport.
type OutboundEmail struct {
	To      []string
	Subject string
	HTML    string
	ReplyTo string
}

// SendEmailResult represents the result of sending an email.
type SendEmailResult struct {
	MessageID string
}

// MailTransport sends rendered email through an external provider.
type MailTransport interface {
	// Name identifies the provider in payloads and events.
	Name() string

	// Send delivers the message. Implementations classify failures with EmailError codes.
	Send(ctx context.Context, email OutboundEmail) (*SendEmailResult, error)
}

// EmailDeliverer sends email right away, falling back to the queue on failure.
type EmailDeliverer interface {
	// Deliver persists payload as a job and sends it.
	Deliver(ctx context.Context, payload entity.EmailPayload, maxAttempts int) (*entity.EmailJob, error)

	// SendQueued sends a job that is already stored. A job that cannot be
	// claimed stays queued for the dispatcher.
	SendQueued(ctx context.Context, job *entity.EmailJob) error
}

// EmailService defines the interface for queueing emails.
type EmailService interface {
	// Enqueue queues an arbitrary payload.
	Enqueue(ctx context.Context, payload entity.EmailPayload, maxAttempts int) (*entity.EmailJob, error)

	// QueuePasswordResetEmail queues a password reset email.
	QueuePasswordResetEmail(ctx context.Context, input QueuePasswordResetInput) error

	// QueueCampaignEmails queues one job per campaign recipient and returns how many were queued.
	QueueCampaignEmails(ctx context.Context, campaign *entity.Campaign) (int, error)

	// QueueHotSheetAlert queues a hot sheet alert for one subscriber.
	QueueHotSheetAlert(ctx context.Context, input QueueHotSheetAlertInput) (*entity.EmailJob, error)
}

// QueuePasswordResetInput represents the input for queueing a password reset email.
type QueuePasswordResetInput struct {
	UserID    string
	UserEmail string
	UserName  string
	ResetURL  string
	ExpiresIn string
}

// QueueHotSheetAlertInput represents the input for queueing a hot sheet alert.
type QueueHotSheetAlertInput struct {
	HotSheetName    string
	SubscriberEmail string
	SubscriberName  string
	Listings        []entity.Listing
	ManageURL       string
}
