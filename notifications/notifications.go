// Package notifications sends transactional email for the comment
// moderation workflow.
package notifications

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/todiane/djangify/moderation"
)

//go:embed templates/*.gohtml
var templatesFS embed.FS

// Message is a single outbound email handed to a Transport.
type Message struct {
	From     string
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// Transport delivers a rendered message. Implementations must return a
// *DeliveryError for transport-level failures so callers can tell them
// apart from rendering problems.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// DeliveryError marks an outbound delivery failure. Callers decide whether
// it is fatal; the moderation workflow treats it as a warning.
type DeliveryError struct {
	Recipient string
	Err       error
}

func (err *DeliveryError) Error() string {
	return fmt.Sprintf("failed to deliver mail to %q: %v", err.Recipient, err.Err)
}

func (err *DeliveryError) Unwrap() error {
	return err.Err
}

const DefaultRejectionReason = "Your comment did not meet our community guidelines."

type Notifier struct {
	transport      Transport
	tpl            *template.Template
	fromAddress    string
	moderatorEmail string
	siteName       string
	siteURL        string
}

func NewNotifier(transport Transport, fromAddress, moderatorEmail, siteName, siteURL string) (*Notifier, error) {
	tpl, err := template.ParseFS(templatesFS, "templates/*.gohtml")
	if err != nil {
		return nil, fmt.Errorf("failed to parse notification templates: %w", err)
	}

	return &Notifier{
		transport:      transport,
		tpl:            tpl,
		fromAddress:    fromAddress,
		moderatorEmail: moderatorEmail,
		siteName:       siteName,
		siteURL:        siteURL,
	}, nil
}

var _ moderation.Notifier = (*Notifier)(nil)

// NotifyNewComment alerts the moderator address that a comment arrived.
func (n *Notifier) NotifyNewComment(ctx context.Context, comment *moderation.Comment, post *moderation.PostRef) error {
	subject := fmt.Sprintf("New comment on: %s", post.Title)
	data := map[string]any{
		"Comment":  comment,
		"Post":     post,
		"SiteName": n.siteName,
		"AdminURL": fmt.Sprintf("%s/api/v1/comments/%s", n.siteURL, comment.ID),
	}

	return n.send(ctx, "new_comment.gohtml", subject, []string{n.moderatorEmail}, data)
}

// NotifyApproved tells the comment's author the comment went live.
func (n *Notifier) NotifyApproved(ctx context.Context, comment *moderation.Comment, post *moderation.PostRef) error {
	data := map[string]any{
		"Comment":  comment,
		"Post":     post,
		"SiteName": n.siteName,
		"PostURL":  fmt.Sprintf("%s/blog/%s", n.siteURL, post.Slug),
	}

	return n.send(ctx, "comment_approved.gohtml", "Your comment has been approved", []string{comment.Email}, data)
}

// NotifyRejected tells the comment's author the comment was turned down.
func (n *Notifier) NotifyRejected(ctx context.Context, comment *moderation.Comment, post *moderation.PostRef, reason string) error {
	if reason == "" {
		reason = DefaultRejectionReason
	}

	data := map[string]any{
		"Comment":  comment,
		"Post":     post,
		"SiteName": n.siteName,
		"Reason":   reason,
	}

	return n.send(ctx, "comment_rejected.gohtml", "Regarding your comment", []string{comment.Email}, data)
}

func (n *Notifier) send(ctx context.Context, templateName, subject string, to []string, data map[string]any) error {
	var buf bytes.Buffer

	err := n.tpl.ExecuteTemplate(&buf, templateName, data)
	if err != nil {
		return fmt.Errorf("failed to render template %q: %w", templateName, err)
	}

	htmlBody := buf.String()

	msg := Message{
		From:     n.fromAddress,
		To:       to,
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: StripTags(htmlBody),
	}

	err = n.transport.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to send %q notification: %w", templateName, err)
	}

	return nil
}
