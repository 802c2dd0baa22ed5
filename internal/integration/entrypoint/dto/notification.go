package dto

import (
	"github.com/shopspring/decimal"

	"github.com/realtyhub/backend/internal/domain/entity"
)

// ListingRequest describes a listing inside notification requests.
// Price and baths accept JSON numbers or numeric strings.
type ListingRequest struct {
	ID       string          `json:"id"`
	Address  string          `json:"address" binding:"required"`
	City     string          `json:"city"`
	Price    decimal.Decimal `json:"price"`
	Beds     int             `json:"beds"`
	Baths    decimal.Decimal `json:"baths"`
	URL      string          `json:"url"`
	PhotoURL string          `json:"photo_url"`
}

// ToEntity converts the request to a listing value.
func (l ListingRequest) ToEntity() entity.Listing {
	return entity.Listing{
		ID:       l.ID,
		Address:  l.Address,
		City:     l.City,
		Price:    l.Price,
		Beds:     l.Beds,
		Baths:    l.Baths,
		URL:      l.URL,
		PhotoURL: l.PhotoURL,
	}
}

// ShowingRequestRequest represents a buyer asking to tour a listing.
type ShowingRequestRequest struct {
	ListingAddress string `json:"listing_address" binding:"required"`
	ListingURL     string `json:"listing_url"`
	AgentEmail     string `json:"agent_email" binding:"required"`
	AgentName      string `json:"agent_name"`
	Name           string `json:"name"`
	Email          string `json:"email" binding:"required"`
	Phone          string `json:"phone"`
	PreferredTime  string `json:"preferred_time"`
	Message        string `json:"message"`
}

// ReverseProspectingRequest represents an agent sharing a listing with buyers.
type ReverseProspectingRequest struct {
	AgentName  string         `json:"agent_name"`
	AgentEmail string         `json:"agent_email" binding:"required"`
	Recipients []string       `json:"recipients" binding:"required,min=1"`
	Listing    ListingRequest `json:"listing"`
	Message    string         `json:"message"`
}

// ReverseProspectingResponse acknowledges a reverse prospecting send.
type ReverseProspectingResponse struct {
	Message    string `json:"message"`
	Recipients int    `json:"recipients"`
}

// HotSheetAlertRequest represents one subscriber's hot sheet matches.
type HotSheetAlertRequest struct {
	HotSheetName    string           `json:"hot_sheet_name"`
	SubscriberEmail string           `json:"subscriber_email" binding:"required"`
	SubscriberName  string           `json:"subscriber_name"`
	ManageURL       string           `json:"manage_url"`
	Listings        []ListingRequest `json:"listings" binding:"required,min=1,dive"`
}

// HotSheetAlertResponse identifies the queued alert job.
type HotSheetAlertResponse struct {
	JobID string `json:"job_id"`
}
