// Package moderation owns the comment lifecycle: submission, spam
// classification, and the approve/reject workflow.
package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/todiane/djangify/spam"
)

type Service struct {
	commentRepo  CommentRepository
	postResolver PostResolver
	detector     *spam.Detector
	notifier     Notifier
}

func NewService(commentRepo CommentRepository, postResolver PostResolver, detector *spam.Detector, notifier Notifier) *Service {
	return &Service{
		commentRepo:  commentRepo,
		postResolver: postResolver,
		detector:     detector,
		notifier:     notifier,
	}
}

type SubmitCommentRequest struct {
	PostID  string
	Name    string
	Email   string
	Content string

	// AsStaff marks a submission made by an authenticated staff member,
	// which bypasses spam classification.
	AsStaff bool
}

// SubmitComment runs the automatic moderation path: classify, persist the
// comment in its final state, then fire best-effort notifications. A
// persistence failure aborts before any mail goes out; a mail failure never
// fails the submission.
func (svc *Service) SubmitComment(ctx context.Context, req SubmitCommentRequest) (*Comment, error) {
	post, err := svc.postResolver.ResolvePost(ctx, req.PostID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve post %q: %w", req.PostID, err)
	}

	timeNow := time.Now()

	comment := &Comment{
		ID:        uuid.NewString(),
		PostID:    post.ID,
		Name:      req.Name,
		Email:     req.Email,
		Content:   req.Content,
		Status:    StatusPending,
		CreatedAt: timeNow,
		UpdatedAt: timeNow,
	}

	verdict := spam.Verdict{}
	if !req.AsStaff {
		verdict = svc.detector.Evaluate(req.Content, req.Email, req.Name)
	}

	if verdict.IsSpam {
		comment.Status = StatusRejected
	} else {
		comment.Status = StatusApproved
	}

	err = svc.commentRepo.Insert(ctx, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to insert comment: %w", err)
	}

	// Creation always alerts the moderator, then the author hears about
	// the automatic transition. Both are best-effort on this path.
	svc.notifyBestEffort(ctx, "new comment", func() error {
		return svc.notifier.NotifyNewComment(ctx, comment, post)
	})

	if verdict.IsSpam {
		svc.notifyBestEffort(ctx, "comment rejected", func() error {
			return svc.notifier.NotifyRejected(ctx, comment, post, verdict.Reason)
		})
	} else {
		svc.notifyBestEffort(ctx, "comment approved", func() error {
			return svc.notifier.NotifyApproved(ctx, comment, post)
		})
	}

	return comment, nil
}

// ApproveComment applies the approved state and notifies the author. It is
// idempotent: approving an approved comment re-applies the state and sends
// the notification again. A returned *notifications.DeliveryError means the
// state change stuck but the mail did not go out.
func (svc *Service) ApproveComment(ctx context.Context, commentID string) (*Comment, error) {
	comment, post, err := svc.findWithPost(ctx, commentID)
	if err != nil {
		return nil, err
	}

	comment.Status = StatusApproved
	comment.UpdatedAt = time.Now()

	err = svc.commentRepo.Update(ctx, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	err = svc.notifier.NotifyApproved(ctx, comment, post)
	if err != nil {
		return comment, fmt.Errorf("comment approved but notification failed: %w", err)
	}

	return comment, nil
}

// RejectComment applies the rejected state and notifies the author with the
// given reason, or a fixed default when empty. Same idempotency and delivery
// semantics as ApproveComment.
func (svc *Service) RejectComment(ctx context.Context, commentID, reason string) (*Comment, error) {
	comment, post, err := svc.findWithPost(ctx, commentID)
	if err != nil {
		return nil, err
	}

	comment.Status = StatusRejected
	comment.UpdatedAt = time.Now()

	err = svc.commentRepo.Update(ctx, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	err = svc.notifier.NotifyRejected(ctx, comment, post, reason)
	if err != nil {
		return comment, fmt.Errorf("comment rejected but notification failed: %w", err)
	}

	return comment, nil
}

func (svc *Service) GetComment(ctx context.Context, commentID string) (*Comment, error) {
	comment, err := svc.commentRepo.Find(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}

	return comment, nil
}

func (svc *Service) ListComments(ctx context.Context, params *ListCommentsParams) ([]*Comment, error) {
	comments, err := svc.commentRepo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return comments, nil
}

func (svc *Service) CountComments(ctx context.Context, params *ListCommentsParams) (uint64, error) {
	count, err := svc.commentRepo.Count(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}

	return count, nil
}

// CountApproved returns the number of approved comments on a post.
func (svc *Service) CountApproved(ctx context.Context, postID string) (uint64, error) {
	return svc.CountComments(ctx, &ListCommentsParams{PostID: postID, Status: StatusApproved})
}

func (svc *Service) findWithPost(ctx context.Context, commentID string) (*Comment, *PostRef, error) {
	comment, err := svc.commentRepo.Find(ctx, commentID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find comment: %w", err)
	}

	post, err := svc.postResolver.ResolvePost(ctx, comment.PostID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve post %q: %w", comment.PostID, err)
	}

	return comment, post, nil
}

func (svc *Service) notifyBestEffort(ctx context.Context, kind string, send func() error) {
	err := send()
	if err != nil {
		slog.WarnContext(ctx, "failed to send notification", "kind", kind, "error", err)
	}
}
