package notifications

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// SMTPTransport delivers messages through an SMTP relay.
type SMTPTransport struct {
	host     string
	port     int
	username string
	password string
}

var _ Transport = (*SMTPTransport)(nil)

func NewSMTPTransport(host string, port int, username, password string) *SMTPTransport {
	return &SMTPTransport{
		host:     host,
		port:     port,
		username: username,
		password: password,
	}
}

func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()

	err := m.From(msg.From)
	if err != nil {
		return fmt.Errorf("invalid from address %q: %w", msg.From, err)
	}

	err = m.To(msg.To...)
	if err != nil {
		return fmt.Errorf("invalid recipient list %v: %w", msg.To, err)
	}

	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
	m.AddAlternativeString(mail.TypeTextHTML, msg.HTMLBody)

	opts := []mail.Option{
		mail.WithPort(t.port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}

	if t.username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(t.username),
			mail.WithPassword(t.password),
		)
	}

	client, err := mail.NewClient(t.host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	err = client.DialAndSendWithContext(ctx, m)
	if err != nil {
		return &DeliveryError{Recipient: firstRecipient(msg.To), Err: err}
	}

	return nil
}

func firstRecipient(to []string) string {
	if len(to) == 0 {
		return ""
	}

	return to[0]
}
