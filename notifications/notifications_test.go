package notifications_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/todiane/djangify/moderation"
	"github.com/todiane/djangify/notifications"
)

type fakeTransport struct {
	sent     []notifications.Message
	failWith error
}

func (t *fakeTransport) Send(_ context.Context, msg notifications.Message) error {
	if t.failWith != nil {
		return t.failWith
	}

	t.sent = append(t.sent, msg)

	return nil
}

func newTestNotifier(t *testing.T, transport notifications.Transport) *notifications.Notifier {
	t.Helper()

	notifier, err := notifications.NewNotifier(
		transport,
		"noreply@example.com",
		"moderator@example.com",
		"Djangify",
		"https://example.com",
	)
	require.NoError(t, err)

	return notifier
}

func testComment() *moderation.Comment {
	return &moderation.Comment{
		ID:      "comment-1",
		PostID:  "post-1",
		Name:    "Jamie",
		Email:   "jamie@example.com",
		Content: "Great post!",
		Status:  moderation.StatusPending,
	}
}

func testPost() *moderation.PostRef {
	return &moderation.PostRef{ID: "post-1", Title: "Hello World", Slug: "hello-world"}
}

func TestNotifyNewComment(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{}
	notifier := newTestNotifier(t, transport)

	err := notifier.NotifyNewComment(context.Background(), testComment(), testPost())
	require.NoError(t, err)

	require.Len(t, transport.sent, 1)

	msg := transport.sent[0]
	assert.Equal(t, "noreply@example.com", msg.From)
	assert.Equal(t, []string{"moderator@example.com"}, msg.To)
	assert.Equal(t, "New comment on: Hello World", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "Jamie")
	assert.Contains(t, msg.HTMLBody, "Great post!")
	assert.NotContains(t, msg.TextBody, "<")
	assert.Contains(t, msg.TextBody, "Great post!")
}

func TestNotifyApproved(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{}
	notifier := newTestNotifier(t, transport)

	err := notifier.NotifyApproved(context.Background(), testComment(), testPost())
	require.NoError(t, err)

	require.Len(t, transport.sent, 1)

	msg := transport.sent[0]
	assert.Equal(t, []string{"jamie@example.com"}, msg.To)
	assert.Equal(t, "Your comment has been approved", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "https://example.com/blog/hello-world")
}

func TestNotifyRejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		reason     string
		wantReason string
	}{
		{
			name:       "custom reason",
			reason:     "Off topic.",
			wantReason: "Off topic.",
		},
		{
			name:       "empty reason falls back to default",
			reason:     "",
			wantReason: notifications.DefaultRejectionReason,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			transport := &fakeTransport{}
			notifier := newTestNotifier(t, transport)

			err := notifier.NotifyRejected(context.Background(), testComment(), testPost(), tt.reason)
			require.NoError(t, err)

			require.Len(t, transport.sent, 1)

			msg := transport.sent[0]
			assert.Equal(t, []string{"jamie@example.com"}, msg.To)
			assert.Equal(t, "Regarding your comment", msg.Subject)
			assert.Contains(t, msg.HTMLBody, tt.wantReason)
		})
	}
}

func TestDeliveryFailurePropagates(t *testing.T) {
	t.Parallel()

	deliveryErr := &notifications.DeliveryError{Recipient: "jamie@example.com", Err: errors.New("connection refused")}
	transport := &fakeTransport{failWith: deliveryErr}
	notifier := newTestNotifier(t, transport)

	err := notifier.NotifyApproved(context.Background(), testComment(), testPost())
	require.Error(t, err)

	var got *notifications.DeliveryError

	require.ErrorAs(t, err, &got)
	assert.Equal(t, "jamie@example.com", got.Recipient)
}

func TestStripTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain text passes through",
			input:    "hello world",
			expected: "hello world",
		},
		{
			name:     "tags removed",
			input:    "<p>hello <strong>world</strong></p>",
			expected: "hello world",
		},
		{
			name:     "script content dropped",
			input:    "<p>hi</p><script>alert(1)</script>",
			expected: "hi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := notifications.StripTags(tt.input)
			assert.Contains(t, result, tt.expected)

			if tt.name != "plain text passes through" {
				assert.NotContains(t, result, "<")
			}
		})
	}
}
