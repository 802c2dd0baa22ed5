package dto

import (
	"time"

	"github.com/realtyhub/backend/internal/domain/entity"
)

// CreateCampaignRequest represents the request body for a bulk email campaign.
type CreateCampaignRequest struct {
	Subject    string   `json:"subject" binding:"required"`
	HTML       string   `json:"html" binding:"required"`
	ReplyTo    string   `json:"reply_to"`
	Recipients []string `json:"recipients" binding:"required,min=1"`
}

// CampaignResponse represents a queued campaign.
type CampaignResponse struct {
	ID         string    `json:"id"`
	Subject    string    `json:"subject"`
	Recipients int       `json:"recipients"`
	Queued     int       `json:"queued"`
	Failed     int       `json:"failed"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToCampaignResponse converts a campaign and its enqueue counts to a response.
func ToCampaignResponse(c *entity.Campaign, queued, failed int) CampaignResponse {
	return CampaignResponse{
		ID:         c.ID.String(),
		Subject:    c.Subject,
		Recipients: len(c.Recipients),
		Queued:     queued,
		Failed:     failed,
		CreatedAt:  c.CreatedAt,
	}
}
