package email

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/realtyhub/backend/internal/application/adapter"
)

// LogTransport writes messages to the log instead of sending them. Used in development.
type LogTransport struct {
	logger *zap.Logger
}

// NewLogTransport creates a new log transport.
func NewLogTransport(logger *zap.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

// Name identifies the provider.
func (t *LogTransport) Name() string {
	return "log"
}

// Send logs the message and always succeeds.
func (t *LogTransport) Send(_ context.Context, email adapter.OutboundEmail) (*adapter.SendEmailResult, error) {
	id := "log-" + uuid.NewString()
	t.logger.Info("email not sent (log transport)",
		zap.String("message_id", id),
		zap.String("to", strings.Join(email.To, ", ")),
		zap.String("subject", email.Subject),
		zap.String("reply_to", email.ReplyTo),
		zap.Int("html_bytes", len(email.HTML)),
	)
	return &adapter.SendEmailResult{MessageID: id}, nil
}

var _ adapter.MailTransport = (*LogTransport)(nil)
