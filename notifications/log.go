package notifications

import (
	"context"
	"log/slog"
)

// LogTransport writes outbound mail to the log instead of delivering it.
// Used when no SMTP host is configured, typically in development.
type LogTransport struct{}

var _ Transport = (*LogTransport)(nil)

func (t *LogTransport) Send(ctx context.Context, msg Message) error {
	slog.InfoContext(
		ctx,
		"outbound mail (smtp not configured)",
		"from", msg.From,
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.TextBody,
	)

	return nil
}
