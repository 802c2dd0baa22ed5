package email

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/textproto"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"github.com/realtyhub/backend/internal/application/adapter"
	domainerror "github.com/realtyhub/backend/internal/domain/error"
)

// SMTPTransport sends email through a plain SMTP relay.
type SMTPTransport struct {
	dialer    *gomail.Dialer
	fromName  string
	fromEmail string
}

// NewSMTPTransport creates a new SMTP transport.
func NewSMTPTransport(host string, port int, username, password, fromName, fromEmail string) *SMTPTransport {
	return &SMTPTransport{
		dialer:    gomail.NewDialer(host, port, username, password),
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

// Name identifies the provider.
func (t *SMTPTransport) Name() string {
	return "smtp"
}

// Send delivers the message with a single SMTP session.
// gomail has no context support, so cancellation is only checked before dialing.
func (t *SMTPTransport) Send(ctx context.Context, email adapter.OutboundEmail) (*adapter.SendEmailResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, domainerror.NewEmailError(
			domainerror.ErrCodeTemporaryEmailFailure,
			"send cancelled",
			err,
		)
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), t.dialer.Host)

	m := gomail.NewMessage()
	m.SetAddressHeader("From", t.fromEmail, t.fromName)
	m.SetHeader("To", email.To...)
	m.SetHeader("Subject", email.Subject)
	m.SetHeader("Message-ID", messageID)
	if email.ReplyTo != "" {
		m.SetHeader("Reply-To", email.ReplyTo)
	}
	m.SetBody("text/html", email.HTML)

	if err := t.dialer.DialAndSend(m); err != nil {
		return nil, classifySMTPError(err)
	}

	return &adapter.SendEmailResult{MessageID: messageID}, nil
}

// classifySMTPError maps 5xx replies to permanent failures and everything else,
// including network errors and 4xx replies, to temporary ones.
func classifySMTPError(err error) error {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) && protoErr.Code >= 500 {
		return domainerror.NewEmailError(
			domainerror.ErrCodePermanentEmailFailure,
			"smtp rejected message",
			err,
		)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return domainerror.NewEmailError(
			domainerror.ErrCodeTemporaryEmailFailure,
			"smtp connection failed",
			err,
		)
	}

	return domainerror.NewEmailError(
		domainerror.ErrCodeTemporaryEmailFailure,
		"smtp send error",
		err,
	)
}

var _ adapter.MailTransport = (*SMTPTransport)(nil)
