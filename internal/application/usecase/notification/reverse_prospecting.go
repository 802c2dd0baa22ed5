package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/realtyhub/backend/internal/application/adapter"
	"github.com/realtyhub/backend/internal/domain/entity"
	domainerror "github.com/realtyhub/backend/internal/domain/error"
)

// MaxProspectRecipients caps how many buyers one reverse prospecting send reaches.
const MaxProspectRecipients = 50

// ReverseProspectingMessage is the acknowledgement returned to the agent.
const ReverseProspectingMessage = "Your listing is on its way to the selected buyers"

// ReverseProspectingInput represents an agent sharing a listing with matched buyers.
type ReverseProspectingInput struct {
	AgentName  string
	AgentEmail string
	Recipients []string
	Listing    entity.Listing
	Message    string
}

// ReverseProspectingOutput represents the output of a reverse prospecting send.
type ReverseProspectingOutput struct {
	Message    string
	Recipients int
}

// ReverseProspectingUseCase sends one listing to each buyer individually.
// Every buyer's job is stored before the agent is answered; the detached task
// only speeds up delivery of jobs the dispatcher would otherwise pick up.
type ReverseProspectingUseCase struct {
	emails      adapter.EmailService
	deliverer   adapter.EmailDeliverer
	tasks       adapter.TaskRunner
	maxAttempts int
	logger      *zap.Logger
}

// NewReverseProspectingUseCase creates a new ReverseProspectingUseCase instance.
func NewReverseProspectingUseCase(
	emails adapter.EmailService,
	deliverer adapter.EmailDeliverer,
	tasks adapter.TaskRunner,
	maxAttempts int,
	logger *zap.Logger,
) *ReverseProspectingUseCase {
	return &ReverseProspectingUseCase{
		emails:      emails,
		deliverer:   deliverer,
		tasks:       tasks,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Execute validates the request, queues one job per buyer and sends them in a
// detached task.
func (uc *ReverseProspectingUseCase) Execute(ctx context.Context, input ReverseProspectingInput) (*ReverseProspectingOutput, error) {
	agentEmail, err := parseAddress("agent email", input.AgentEmail)
	if err != nil {
		return nil, err
	}
	if err := validateListing(input.Listing); err != nil {
		return nil, err
	}

	recipients := make([]string, 0, len(input.Recipients))
	seen := make(map[string]bool, len(input.Recipients))
	for _, r := range input.Recipients {
		addr, err := parseAddress("recipient", r)
		if err != nil {
			return nil, err
		}
		if key := strings.ToLower(addr); !seen[key] {
			seen[key] = true
			recipients = append(recipients, addr)
		}
	}
	if len(recipients) == 0 {
		return nil, domainerror.NewNotificationError(
			domainerror.ErrCodeMissingRecipient,
			"at least one recipient is required",
			domainerror.ErrMissingRecipient,
		)
	}
	if len(recipients) > MaxProspectRecipients {
		return nil, domainerror.NewNotificationError(
			domainerror.ErrCodeTooManyRecipients,
			fmt.Sprintf("at most %d recipients per send", MaxProspectRecipients),
			domainerror.ErrTooManyRecipients,
		)
	}

	agentName := strings.TrimSpace(input.AgentName)
	if agentName == "" {
		agentName = "Your agent"
	}
	subject := fmt.Sprintf("%s shared a listing: %s", agentName, input.Listing.Address)
	listing := input.Listing.TemplateVars()
	message := strings.TrimSpace(input.Message)

	jobs := make([]*entity.EmailJob, 0, len(recipients))
	for _, to := range recipients {
		job, err := uc.emails.Enqueue(ctx, entity.EmailPayload{
			Template: entity.TemplateReverseProspecting,
			To:       entity.Recipients{to},
			Subject:  subject,
			ReplyTo:  agentEmail,
			Variables: map[string]interface{}{
				"agent_name": agentName,
				"listing":    listing,
				"message":    message,
			},
		}, uc.maxAttempts)
		if err != nil {
			uc.logger.Error("failed to queue reverse prospecting email",
				zap.Int("queued", len(jobs)),
				zap.Int("recipients", len(recipients)),
				zap.Error(err),
			)
			return nil, err
		}
		jobs = append(jobs, job)
	}

	uc.tasks.Go("reverse_prospecting", func(ctx context.Context) error {
		var errs []error
		for _, job := range jobs {
			if err := uc.deliverer.SendQueued(ctx, job); err != nil {
				errs = append(errs, fmt.Errorf("job %s: %w", job.ID, err))
			}
		}
		if len(errs) > 0 {
			uc.logger.Warn("reverse prospecting left jobs to the dispatcher",
				zap.Int("pending", len(errs)),
				zap.Int("recipients", len(jobs)),
			)
		}
		return errors.Join(errs...)
	})

	return &ReverseProspectingOutput{
		Message:    ReverseProspectingMessage,
		Recipients: len(recipients),
	}, nil
}
