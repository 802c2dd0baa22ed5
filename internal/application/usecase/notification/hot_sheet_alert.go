package notification

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/realtyhub/backend/internal/application/adapter"
	"github.com/realtyhub/backend/internal/domain/entity"
	domainerror "github.com/realtyhub/backend/internal/domain/error"
)

// HotSheetAlertInput represents one subscriber's matches for a saved search.
type HotSheetAlertInput struct {
	HotSheetName    string
	SubscriberEmail string
	SubscriberName  string
	Listings        []entity.Listing
	ManageURL       string
}

// HotSheetAlertOutput represents the queued alert.
type HotSheetAlertOutput struct {
	JobID uuid.UUID
}

// HotSheetAlertUseCase queues a hot sheet alert email.
type HotSheetAlertUseCase struct {
	emailService adapter.EmailService
	logger       *zap.Logger
}

// NewHotSheetAlertUseCase creates a new HotSheetAlertUseCase instance.
func NewHotSheetAlertUseCase(emailService adapter.EmailService, logger *zap.Logger) *HotSheetAlertUseCase {
	return &HotSheetAlertUseCase{
		emailService: emailService,
		logger:       logger,
	}
}

// Execute validates the alert and queues it.
func (uc *HotSheetAlertUseCase) Execute(ctx context.Context, input HotSheetAlertInput) (*HotSheetAlertOutput, error) {
	email, err := parseAddress("subscriber email", input.SubscriberEmail)
	if err != nil {
		return nil, err
	}
	if len(input.Listings) == 0 {
		return nil, domainerror.NewNotificationError(
			domainerror.ErrCodeMissingContent,
			"at least one listing is required",
			domainerror.ErrMissingContent,
		)
	}
	for _, l := range input.Listings {
		if err := validateListing(l); err != nil {
			return nil, err
		}
	}

	name := strings.TrimSpace(input.HotSheetName)
	if name == "" {
		name = "your saved search"
	}

	job, err := uc.emailService.QueueHotSheetAlert(ctx, adapter.QueueHotSheetAlertInput{
		HotSheetName:    name,
		SubscriberEmail: email,
		SubscriberName:  strings.TrimSpace(input.SubscriberName),
		Listings:        input.Listings,
		ManageURL:       input.ManageURL,
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("hot sheet alert queued",
		zap.String("job_id", job.ID.String()),
		zap.Int("listings", len(input.Listings)),
	)
	return &HotSheetAlertOutput{JobID: job.ID}, nil
}
