package entity

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Listing is the subset of a property listing that outbound emails describe.
type Listing struct {
	ID       string
	Address  string
	City     string
	Price    decimal.Decimal
	Beds     int
	Baths    decimal.Decimal
	URL      string
	PhotoURL string
}

// FormattedPrice renders the asking price as whole dollars with thousands separators.
func (l Listing) FormattedPrice() string {
	whole := l.Price.Round(0).StringFixed(0)
	negative := false
	if len(whole) > 0 && whole[0] == '-' {
		negative = true
		whole = whole[1:]
	}

	out := make([]byte, 0, len(whole)+len(whole)/3)
	for i := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, whole[i])
	}

	if negative {
		return "-$" + string(out)
	}
	return "$" + string(out)
}

// Summary is a one-line description used in subjects and fallbacks.
func (l Listing) Summary() string {
	return fmt.Sprintf("%s, %s - %s (%d bd / %s ba)", l.Address, l.City, l.FormattedPrice(), l.Beds, l.Baths.String())
}

// TemplateVars flattens the listing into template variables.
func (l Listing) TemplateVars() map[string]interface{} {
	return map[string]interface{}{
		"id":        l.ID,
		"address":   l.Address,
		"city":      l.City,
		"price":     l.FormattedPrice(),
		"beds":      l.Beds,
		"baths":     l.Baths.String(),
		"url":       l.URL,
		"photo_url": l.PhotoURL,
		"summary":   l.Summary(),
	}
}
