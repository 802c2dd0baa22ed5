// Package campaign contains bulk email campaign use cases.
package campaign

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/realtyhub/backend/internal/application/adapter"
	"github.com/realtyhub/backend/internal/domain/entity"
	domainerror "github.com/realtyhub/backend/internal/domain/error"
)

// CreateCampaignInput represents the input for campaign creation.
type CreateCampaignInput struct {
	UserID     uuid.UUID
	Subject    string
	HTML       string
	ReplyTo    string
	Recipients []string
}

// CreateCampaignOutput represents the output of campaign creation.
type CreateCampaignOutput struct {
	Campaign *entity.Campaign
	Queued   int
	Failed   int
}

// CreateCampaignUseCase stores a campaign and queues one email per recipient.
type CreateCampaignUseCase struct {
	campaignRepo adapter.CampaignRepository
	emailService adapter.EmailService
	logger       *zap.Logger
}

// NewCreateCampaignUseCase creates a new CreateCampaignUseCase instance.
func NewCreateCampaignUseCase(
	campaignRepo adapter.CampaignRepository,
	emailService adapter.EmailService,
	logger *zap.Logger,
) *CreateCampaignUseCase {
	return &CreateCampaignUseCase{
		campaignRepo: campaignRepo,
		emailService: emailService,
		logger:       logger,
	}
}

// Execute validates the campaign, persists it and fans it out to the queue.
// Enqueue failures are logged and counted; they never fail the request.
func (uc *CreateCampaignUseCase) Execute(ctx context.Context, input CreateCampaignInput) (*CreateCampaignOutput, error) {
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return nil, domainerror.NewNotificationError(
			domainerror.ErrCodeMissingSubject,
			"subject is required",
			domainerror.ErrMissingSubject,
		)
	}

	if strings.TrimSpace(input.HTML) == "" {
		return nil, domainerror.NewNotificationError(
			domainerror.ErrCodeMissingContent,
			"html content is required",
			domainerror.ErrMissingContent,
		)
	}

	recipients := dedupeRecipients(input.Recipients)
	if len(recipients) == 0 {
		return nil, domainerror.NewNotificationError(
			domainerror.ErrCodeMissingRecipient,
			"at least one recipient is required",
			domainerror.ErrMissingRecipient,
		)
	}
	if len(recipients) > entity.MaxCampaignRecipients {
		return nil, domainerror.NewNotificationError(
			domainerror.ErrCodeTooManyRecipients,
			fmt.Sprintf("a campaign can have at most %d recipients", entity.MaxCampaignRecipients),
			domainerror.ErrTooManyRecipients,
		)
	}

	campaign := entity.NewCampaign(input.UserID, subject, input.HTML, strings.TrimSpace(input.ReplyTo), recipients)
	if err := uc.campaignRepo.Create(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	logger := uc.logger.With(
		zap.String("campaign_id", campaign.ID.String()),
		zap.String("user_id", input.UserID.String()),
	)

	queued, err := uc.emailService.QueueCampaignEmails(ctx, campaign)
	failed := len(recipients) - queued
	if err != nil {
		logger.Error("failed to queue some campaign emails",
			zap.Int("queued", queued),
			zap.Int("failed", failed),
			zap.Error(err),
		)
	}

	campaign.JobCount = queued
	if err := uc.campaignRepo.UpdateJobCount(ctx, campaign.ID, queued); err != nil {
		logger.Warn("failed to record campaign job count", zap.Error(err))
	}

	logger.Info("campaign queued",
		zap.Int("recipients", len(recipients)),
		zap.Int("queued", queued),
	)

	return &CreateCampaignOutput{
		Campaign: campaign,
		Queued:   queued,
		Failed:   failed,
	}, nil
}

// dedupeRecipients trims entries and drops blanks and case-insensitive duplicates.
func dedupeRecipients(recipients []string) []string {
	seen := make(map[string]struct{}, len(recipients))
	out := make([]string, 0, len(recipients))
	for _, r := range recipients {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		key := strings.ToLower(r)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}
