// Package notification contains the listing-driven email producers.
package notification

import (
	"net/mail"
	"strings"

	"github.com/realtyhub/backend/internal/domain/entity"
	domainerror "github.com/realtyhub/backend/internal/domain/error"
)

// parseAddress returns the bare address of s, or an error naming field.
func parseAddress(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", domainerror.NewNotificationError(
			domainerror.ErrCodeMissingRecipient,
			field+" is required",
			domainerror.ErrMissingRecipient,
		)
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return "", domainerror.NewNotificationError(
			domainerror.ErrCodeInvalidAddress,
			field+" is not a valid email address",
			err,
		)
	}
	return addr.Address, nil
}

func validateListing(l entity.Listing) error {
	if strings.TrimSpace(l.Address) == "" || l.Price.IsNegative() {
		return domainerror.NewNotificationError(
			domainerror.ErrCodeInvalidListing,
			"listing needs an address and a non-negative price",
			domainerror.ErrInvalidListing,
		)
	}
	return nil
}
