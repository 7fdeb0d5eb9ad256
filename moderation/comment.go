package moderation

import (
	"context"
	"fmt"
	"time"
)

// Status is the moderation state of a comment.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

type Comment struct {
	ID        string
	PostID    string
	Name      string
	Email     string
	Content   string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Approved reports whether the comment is visible to anonymous readers.
func (c *Comment) Approved() bool {
	return c.Status == StatusApproved
}

type ListCommentsParams struct {
	PostID        string
	Status        Status
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Limit         uint64
	Offset        uint64
}

type CommentRepository interface {
	Insert(ctx context.Context, comment *Comment) (err error)
	Update(ctx context.Context, comment *Comment) (err error)
	Find(ctx context.Context, id string) (comment *Comment, err error)
	List(ctx context.Context, params *ListCommentsParams) (comments []*Comment, err error)
	Count(ctx context.Context, params *ListCommentsParams) (count uint64, err error)
}

type CommentNotFoundError struct {
	ID string
}

func (err CommentNotFoundError) Error() string {
	return fmt.Sprintf("comment with id %q not found", err.ID)
}

// PostRef is the read-only slice of a post the workflow needs for
// notification content.
type PostRef struct {
	ID    string
	Title string
	Slug  string
}

// PostResolver looks up the post a comment targets.
type PostResolver interface {
	ResolvePost(ctx context.Context, postID string) (*PostRef, error)
}

// Notifier sends the transactional email the workflow triggers. Delivery
// failures must be distinguishable as *notifications.DeliveryError values.
type Notifier interface {
	NotifyNewComment(ctx context.Context, comment *Comment, post *PostRef) error
	NotifyApproved(ctx context.Context, comment *Comment, post *PostRef) error
	NotifyRejected(ctx context.Context, comment *Comment, post *PostRef, reason string) error
}
