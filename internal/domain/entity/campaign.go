package entity

import (
	"time"

	"github.com/google/uuid"
)

// MaxCampaignRecipients caps the fan-out of a single bulk campaign.
const MaxCampaignRecipients = 500

// Campaign is a bulk email sent by an agent to a list of contacts.
type Campaign struct {
	ID         uuid.UUID
	OwnerID    uuid.UUID
	Subject    string
	HTML       string
	ReplyTo    string
	Recipients []string
	JobCount   int
	CreatedAt  time.Time
}

// NewCampaign creates a campaign owned by ownerID.
func NewCampaign(ownerID uuid.UUID, subject, html, replyTo string, recipients []string) *Campaign {
	return &Campaign{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Subject:    subject,
		HTML:       html,
		ReplyTo:    replyTo,
		Recipients: recipients,
		CreatedAt:  time.Now().UTC(),
	}
}
