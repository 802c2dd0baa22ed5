package email

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/resend/resend-go/v2"

	"github.com/realtyhub/backend/internal/application/adapter"
	domainerror "github.com/realtyhub/backend/internal/domain/error"
)

// ResendTransport implements adapter.MailTransport using Resend.
type ResendTransport struct {
	client    *resend.Client
	fromName  string
	fromEmail string
}

// NewResendTransport creates a new Resend transport. A non-empty baseURL points
// the client at a different API host.
func NewResendTransport(apiKey, fromName, fromEmail, baseURL string) (*ResendTransport, error) {
	client := resend.NewClient(apiKey)
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid resend base URL: %w", err)
		}
		client.BaseURL = u
	}

	return &ResendTransport{
		client:    client,
		fromName:  fromName,
		fromEmail: fromEmail,
	}, nil
}

// Name identifies the provider.
func (t *ResendTransport) Name() string {
	return "resend"
}

// Send sends an email via Resend.
func (t *ResendTransport) Send(ctx context.Context, email adapter.OutboundEmail) (*adapter.SendEmailResult, error) {
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", t.fromName, t.fromEmail),
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTML,
		ReplyTo: email.ReplyTo,
	}

	resp, err := t.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		if isPermanentError(err) {
			return nil, domainerror.NewEmailError(
				domainerror.ErrCodePermanentEmailFailure,
				"permanent email failure",
				err,
			)
		}
		return nil, domainerror.NewEmailError(
			domainerror.ErrCodeTemporaryEmailFailure,
			"temporary email failure",
			err,
		)
	}

	return &adapter.SendEmailResult{
		MessageID: resp.Id,
	}, nil
}

// isPermanentError checks if the error is a permanent error that should not be retried.
// Permanent errors include: 401 (Unauthorized), 403 (Forbidden), 422 (Validation Error)
// Temporary errors include: 429 (Rate Limit), 5xx (Server Errors)
func isPermanentError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "429") || strings.Contains(errStr, "rate limit") {
		return false
	}

	permanentPatterns := []string{
		"401",
		"403",
		"422",
		"unauthorized",
		"forbidden",
		"validation",
		"invalid",
		"bad request",
	}

	for _, pattern := range permanentPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

var _ adapter.MailTransport = (*ResendTransport)(nil)
