package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/realtyhub/backend/internal/application/adapter"
	"github.com/realtyhub/backend/internal/domain/entity"
	domainerror "github.com/realtyhub/backend/internal/domain/error"
	"github.com/realtyhub/backend/internal/integration/persistence/model"
)

type campaignRepository struct {
	db *gorm.DB
}

// NewCampaignRepository creates a new campaign repository instance.
func NewCampaignRepository(db *gorm.DB) adapter.CampaignRepository {
	return &campaignRepository{db: db}
}

// Create stores a new campaign.
func (r *campaignRepository) Create(ctx context.Context, campaign *entity.Campaign) error {
	return r.db.WithContext(ctx).Create(model.CampaignModelFromEntity(campaign)).Error
}

// UpdateJobCount records how many jobs were queued for the campaign.
func (r *campaignRepository) UpdateJobCount(ctx context.Context, id uuid.UUID, jobCount int) error {
	result := r.db.WithContext(ctx).
		Model(&model.CampaignModel{}).
		Where("id = ?", id).
		Update("job_count", jobCount)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerror.ErrCampaignNotFound
	}
	return nil
}

// FindByID retrieves a campaign by its ID.
func (r *campaignRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Campaign, error) {
	var campaignModel model.CampaignModel
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&campaignModel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domainerror.ErrCampaignNotFound
		}
		return nil, result.Error
	}
	return campaignModel.ToEntity(), nil
}
