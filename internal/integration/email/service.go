package email

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/realtyhub/backend/internal/application/adapter"
	"github.com/realtyhub/backend/internal/domain/entity"
	domainerror "github.com/realtyhub/backend/internal/domain/error"
)

// Service handles email queueing operations.
type Service struct {
	queue       adapter.EmailQueueRepository
	clock       entity.Clock
	logger      *zap.Logger
	provider    string
	maxAttempts int
}

// NewService creates a new email service. provider is recorded on every payload.
func NewService(queue adapter.EmailQueueRepository, clock entity.Clock, logger *zap.Logger, provider string, maxAttempts int) *Service {
	if clock == nil {
		clock = entity.SystemClock{}
	}
	if maxAttempts <= 0 {
		maxAttempts = entity.DefaultMaxAttempts
	}
	return &Service{
		queue:       queue,
		clock:       clock,
		logger:      logger,
		provider:    provider,
		maxAttempts: maxAttempts,
	}
}

// Enqueue queues an arbitrary payload, eligible immediately.
func (s *Service) Enqueue(ctx context.Context, payload entity.EmailPayload, maxAttempts int) (*entity.EmailJob, error) {
	if payload.Provider == "" {
		payload.Provider = s.provider
	}
	if maxAttempts <= 0 {
		maxAttempts = s.maxAttempts
	}

	job := entity.NewEmailJob(payload, s.clock.Now(), maxAttempts)
	if err := s.queue.Enqueue(ctx, job); err != nil {
		return nil, domainerror.NewEmailError(
			domainerror.ErrCodeEmailQueueFailed,
			fmt.Sprintf("failed to queue %s email", payload.Template),
			err,
		)
	}

	s.logger.Debug("email job queued",
		zap.String("job_id", job.ID.String()),
		zap.String("template", string(payload.Template)),
	)
	return job, nil
}

// QueuePasswordResetEmail queues a password reset email.
func (s *Service) QueuePasswordResetEmail(ctx context.Context, input adapter.QueuePasswordResetInput) error {
	_, err := s.Enqueue(ctx, entity.EmailPayload{
		Template: entity.TemplatePasswordReset,
		To:       entity.Recipients{input.UserEmail},
		Subject:  "Reset your RealtyHub password",
		Variables: map[string]interface{}{
			"user_id":    input.UserID,
			"user_name":  input.UserName,
			"reset_url":  input.ResetURL,
			"expires_in": input.ExpiresIn,
		},
	}, 0)
	return err
}

// QueueCampaignEmails queues one job per recipient so each address retries on its own.
// It returns how many jobs were queued and every enqueue error joined together.
func (s *Service) QueueCampaignEmails(ctx context.Context, campaign *entity.Campaign) (int, error) {
	queued := 0
	var errs []error

	for _, recipient := range campaign.Recipients {
		_, err := s.Enqueue(ctx, entity.EmailPayload{
			Template: entity.TemplateCampaign,
			To:       entity.Recipients{recipient},
			Subject:  campaign.Subject,
			HTML:     campaign.HTML,
			ReplyTo:  campaign.ReplyTo,
			Variables: map[string]interface{}{
				"campaign_id": campaign.ID.String(),
			},
		}, 0)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", recipient, err))
			continue
		}
		queued++
	}

	return queued, errors.Join(errs...)
}

// QueueHotSheetAlert queues a hot sheet alert for one subscriber.
func (s *Service) QueueHotSheetAlert(ctx context.Context, input adapter.QueueHotSheetAlertInput) (*entity.EmailJob, error) {
	listings := make([]map[string]interface{}, 0, len(input.Listings))
	for _, l := range input.Listings {
		listings = append(listings, l.TemplateVars())
	}

	subject := fmt.Sprintf("%d new listings match %s", len(input.Listings), input.HotSheetName)
	if len(input.Listings) == 1 {
		subject = fmt.Sprintf("New listing matches %s: %s", input.HotSheetName, input.Listings[0].Address)
	}

	return s.Enqueue(ctx, entity.EmailPayload{
		Template: entity.TemplateHotSheetAlert,
		To:       entity.Recipients{input.SubscriberEmail},
		Subject:  subject,
		Variables: map[string]interface{}{
			"hot_sheet_name":  input.HotSheetName,
			"subscriber_name": input.SubscriberName,
			"listing_count":   len(input.Listings),
			"listings":        listings,
			"manage_url":      input.ManageURL,
			"message":         subject,
		},
	}, 0)
}

// Ensure Service implements adapter.EmailService.
var _ adapter.EmailService = (*Service)(nil)
