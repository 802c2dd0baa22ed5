package email

import (
	"net/mail"
	"strings"

	"github.com/realtyhub/backend/internal/domain/entity"
	domainerror "github.com/realtyhub/backend/internal/domain/error"
)

// NormalizeRecipients flattens a payload "to" value into a list of bare addresses.
// Entries may themselves hold several addresses joined with "," or ";".
// Duplicates are dropped case-insensitively, keeping the first spelling.
//
// Parts that are not valid addresses are skipped and returned as rejected.
// The error is only set when no usable address remains.
func NormalizeRecipients(to entity.Recipients) (addresses, rejected []string, err error) {
	seen := make(map[string]bool)
	addresses = make([]string, 0, len(to))

	add := func(addr string) {
		key := strings.ToLower(addr)
		if seen[key] {
			return
		}
		seen[key] = true
		addresses = append(addresses, addr)
	}

	for _, entry := range to {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if list, err := mail.ParseAddressList(entry); err == nil {
			for _, addr := range list {
				add(addr.Address)
			}
			continue
		}

		for _, part := range splitAddressList(entry) {
			addr, err := mail.ParseAddress(part)
			if err != nil {
				rejected = append(rejected, part)
				continue
			}
			add(addr.Address)
		}
	}

	if len(addresses) == 0 {
		message := "recipient list is empty"
		if len(rejected) > 0 {
			message = "no valid recipient in " + strings.Join(rejected, ", ")
		}
		return nil, rejected, domainerror.NewEmailError(
			domainerror.ErrCodeInvalidRecipients,
			message,
			domainerror.ErrInvalidRecipients,
		)
	}
	return addresses, rejected, nil
}

// splitAddressList splits on "," and ";" outside quoted strings and angle brackets.
func splitAddressList(s string) []string {
	var (
		parts   []string
		current strings.Builder
		quoted  bool
		escaped bool
		angle   int
	)

	flush := func() {
		if part := strings.TrimSpace(current.String()); part != "" {
			parts = append(parts, part)
		}
		current.Reset()
	}

	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case quoted && r == '\\':
			escaped = true
		case r == '"':
			quoted = !quoted
		case quoted:
		case r == '<':
			angle++
		case r == '>' && angle > 0:
			angle--
		case angle == 0 && (r == ',' || r == ';'):
			flush()
			continue
		}
		current.WriteRune(r)
	}
	flush()
	return parts
}
