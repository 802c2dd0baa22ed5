// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"

	"github.com/google/uuid"

	"github.com/realtyhub/backend/internal/domain/entity"
)

// CampaignRepository defines persistence for bulk email campaigns.
type CampaignRepository interface {
	// Create stores a new campaign.
	Create(ctx context.Context, campaign *entity.Campaign) error

	// UpdateJobCount records how many jobs were queued for the campaign.
	UpdateJobCount(ctx context.Context, id uuid.UUID, jobCount int) error

	// FindByID retrieves a campaign by its ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Campaign, error)
}
