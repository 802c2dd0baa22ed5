package notification

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/realtyhub/backend/internal/application/adapter"
	"github.com/realtyhub/backend/internal/domain/entity"
)

// ShowingRequestMessage is the acknowledgement returned to the requester.
const ShowingRequestMessage = "Your showing request has been sent to the listing agent"

// ShowingRequestInput represents a buyer asking to tour a listing.
type ShowingRequestInput struct {
	ListingID      string
	ListingAddress string
	ListingURL     string
	AgentEmail     string
	AgentName      string
	RequesterName  string
	RequesterEmail string
	RequesterPhone string
	PreferredTime  string
	Message        string
}

// ShowingRequestOutput represents the output of a showing request.
type ShowingRequestOutput struct {
	Message string
}

// ShowingRequestUseCase forwards a showing request to the listing agent.
type ShowingRequestUseCase struct {
	deliverer   adapter.EmailDeliverer
	tasks       adapter.TaskRunner
	maxAttempts int
	logger      *zap.Logger
}

// NewShowingRequestUseCase creates a new ShowingRequestUseCase instance.
func NewShowingRequestUseCase(deliverer adapter.EmailDeliverer, tasks adapter.TaskRunner, maxAttempts int, logger *zap.Logger) *ShowingRequestUseCase {
	return &ShowingRequestUseCase{
		deliverer:   deliverer,
		tasks:       tasks,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Execute validates the request and hands delivery to a detached task.
// The caller gets the acknowledgement whether or not the send succeeds.
func (uc *ShowingRequestUseCase) Execute(ctx context.Context, input ShowingRequestInput) (*ShowingRequestOutput, error) {
	agentEmail, err := parseAddress("agent email", input.AgentEmail)
	if err != nil {
		return nil, err
	}
	requesterEmail, err := parseAddress("requester email", input.RequesterEmail)
	if err != nil {
		return nil, err
	}
	if err := validateListing(entity.Listing{Address: input.ListingAddress}); err != nil {
		return nil, err
	}

	requesterName := strings.TrimSpace(input.RequesterName)
	if requesterName == "" {
		requesterName = requesterEmail
	}

	payload := entity.EmailPayload{
		Template: entity.TemplateShowingRequest,
		To:       entity.Recipients{agentEmail},
		Subject:  fmt.Sprintf("Showing request for %s", strings.TrimSpace(input.ListingAddress)),
		ReplyTo:  requesterEmail,
		Variables: map[string]interface{}{
			"listing_id":      input.ListingID,
			"listing_address": strings.TrimSpace(input.ListingAddress),
			"listing_url":     input.ListingURL,
			"agent_name":      input.AgentName,
			"requester_name":  requesterName,
			"requester_email": requesterEmail,
			"requester_phone": strings.TrimSpace(input.RequesterPhone),
			"preferred_time":  strings.TrimSpace(input.PreferredTime),
			"message":         strings.TrimSpace(input.Message),
		},
	}

	uc.tasks.Go("showing_request", func(ctx context.Context) error {
		job, err := uc.deliverer.Deliver(ctx, payload, uc.maxAttempts)
		if err != nil {
			return fmt.Errorf("showing request for listing %s: %w", input.ListingID, err)
		}
		uc.logger.Debug("showing request delivered",
			zap.String("listing_id", input.ListingID),
			zap.String("job_id", job.ID.String()),
		)
		return nil
	})

	return &ShowingRequestOutput{Message: ShowingRequestMessage}, nil
}
