package moderation_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/todiane/djangify/moderation"
	"github.com/todiane/djangify/notifications"
	"github.com/todiane/djangify/spam"
)

type fakeCommentRepo struct {
	mu       sync.Mutex
	comments map[string]*moderation.Comment
	failNext error
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: make(map[string]*moderation.Comment)}
}

func (r *fakeCommentRepo) Insert(ctx context.Context, comment *moderation.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil

		return err
	}

	c := *comment
	r.comments[comment.ID] = &c

	return nil
}

func (r *fakeCommentRepo) Update(ctx context.Context, comment *moderation.Comment) error {
	return r.Insert(ctx, comment)
}

func (r *fakeCommentRepo) Find(ctx context.Context, id string) (*moderation.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	comment, ok := r.comments[id]
	if !ok {
		return nil, moderation.CommentNotFoundError{ID: id}
	}

	c := *comment

	return &c, nil
}

func (r *fakeCommentRepo) List(ctx context.Context, params *moderation.ListCommentsParams) ([]*moderation.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*moderation.Comment

	for _, comment := range r.comments {
		if params.PostID != "" && comment.PostID != params.PostID {
			continue
		}

		if params.Status != "" && comment.Status != params.Status {
			continue
		}

		c := *comment
		result = append(result, &c)
	}

	return result, nil
}

func (r *fakeCommentRepo) Count(ctx context.Context, params *moderation.ListCommentsParams) (uint64, error) {
	comments, err := r.List(ctx, params)
	if err != nil {
		return 0, err
	}

	return uint64(len(comments)), nil
}

type fakePostResolver struct {
	post *moderation.PostRef
}

func (r *fakePostResolver) ResolvePost(ctx context.Context, postID string) (*moderation.PostRef, error) {
	if r.post == nil || r.post.ID != postID {
		return nil, errors.New("post not found")
	}

	return r.post, nil
}

type notifierCall struct {
	kind   string
	status moderation.Status
	to     string
	reason string
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notifierCall
	fail  error
}

func (n *fakeNotifier) record(call notifierCall) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.fail != nil {
		return n.fail
	}

	n.calls = append(n.calls, call)

	return nil
}

func (n *fakeNotifier) NotifyNewComment(ctx context.Context, c *moderation.Comment, p *moderation.PostRef) error {
	return n.record(notifierCall{kind: "new", status: c.Status})
}

func (n *fakeNotifier) NotifyApproved(ctx context.Context, c *moderation.Comment, p *moderation.PostRef) error {
	return n.record(notifierCall{kind: "approved", status: c.Status, to: c.Email})
}

func (n *fakeNotifier) NotifyRejected(ctx context.Context, c *moderation.Comment, p *moderation.PostRef, reason string) error {
	return n.record(notifierCall{kind: "rejected", status: c.Status, to: c.Email, reason: reason})
}

func (n *fakeNotifier) callsOf(kind string) []notifierCall {
	n.mu.Lock()
	defer n.mu.Unlock()

	var result []notifierCall

	for _, call := range n.calls {
		if call.kind == kind {
			result = append(result, call)
		}
	}

	return result
}

func newTestService(t *testing.T) (*moderation.Service, *fakeCommentRepo, *fakeNotifier) {
	t.Helper()

	repo := newFakeCommentRepo()
	notifier := &fakeNotifier{}
	resolver := &fakePostResolver{post: &moderation.PostRef{
		ID:    "post-1",
		Title: "Hello World",
		Slug:  "hello-world",
	}}

	svc := moderation.NewService(repo, resolver, spam.NewDetector(), notifier)

	return svc, repo, notifier
}

func TestSubmitCleanComment(t *testing.T) {
	t.Parallel()

	svc, _, notifier := newTestService(t)

	comment, err := svc.SubmitComment(context.Background(), moderation.SubmitCommentRequest{
		PostID:  "post-1",
		Name:    "Jane",
		Email:   "jane@example.com",
		Content: "Great write-up, learned a lot.",
	})
	require.NoError(t, err)

	assert.Equal(t, moderation.StatusApproved, comment.Status)
	assert.Len(t, notifier.callsOf("new"), 1)
	assert.Len(t, notifier.callsOf("approved"), 1)
	assert.Empty(t, notifier.callsOf("rejected"))
}

func TestSubmitSpamComment(t *testing.T) {
	t.Parallel()

	svc, _, notifier := newTestService(t)

	comment, err := svc.SubmitComment(context.Background(), moderation.SubmitCommentRequest{
		PostID:  "post-1",
		Name:    "Spammer",
		Email:   "spam@example.com",
		Content: "cheap viagra here",
	})
	require.NoError(t, err)

	assert.Equal(t, moderation.StatusRejected, comment.Status)

	rejected := notifier.callsOf("rejected")
	require.Len(t, rejected, 1)
	assert.Equal(t, "spam@example.com", rejected[0].to)
	assert.Equal(t, "Blacklisted word detected: viagra", rejected[0].reason)
	assert.Empty(t, notifier.callsOf("approved"))
}

func TestSubmitStaffCommentBypassesSpamCheck(t *testing.T) {
	t.Parallel()

	svc, _, notifier := newTestService(t)

	comment, err := svc.SubmitComment(context.Background(), moderation.SubmitCommentRequest{
		PostID:  "post-1",
		Name:    "Admin",
		Email:   "admin@example.com",
		Content: "cheap viagra here",
		AsStaff: true,
	})
	require.NoError(t, err)

	assert.Equal(t, moderation.StatusApproved, comment.Status)
	assert.Len(t, notifier.callsOf("approved"), 1)
	assert.Empty(t, notifier.callsOf("rejected"))
}

func TestSubmitPersistenceFailureSendsNoMail(t *testing.T) {
	t.Parallel()

	svc, repo, notifier := newTestService(t)
	repo.failNext = errors.New("disk full")

	_, err := svc.SubmitComment(context.Background(), moderation.SubmitCommentRequest{
		PostID:  "post-1",
		Name:    "Jane",
		Email:   "jane@example.com",
		Content: "Great write-up.",
	})
	require.Error(t, err)
	assert.Empty(t, notifier.calls)
}

func TestSubmitMailFailureDoesNotFailSubmission(t *testing.T) {
	t.Parallel()

	svc, repo, notifier := newTestService(t)
	notifier.fail = &notifications.DeliveryError{Recipient: "jane@example.com", Err: errors.New("smtp down")}

	comment, err := svc.SubmitComment(context.Background(), moderation.SubmitCommentRequest{
		PostID:  "post-1",
		Name:    "Jane",
		Email:   "jane@example.com",
		Content: "Great write-up.",
	})
	require.NoError(t, err)
	assert.Equal(t, moderation.StatusApproved, comment.Status)

	stored, err := repo.Find(context.Background(), comment.ID)
	require.NoError(t, err)
	assert.Equal(t, moderation.StatusApproved, stored.Status)
}

func TestApproveIsIdempotent(t *testing.T) {
	t.Parallel()

	svc, _, notifier := newTestService(t)

	comment, err := svc.SubmitComment(context.Background(), moderation.SubmitCommentRequest{
		PostID:  "post-1",
		Name:    "Spammer",
		Email:   "spam@example.com",
		Content: "win at the casino",
	})
	require.NoError(t, err)
	require.Equal(t, moderation.StatusRejected, comment.Status)

	first, err := svc.ApproveComment(context.Background(), comment.ID)
	require.NoError(t, err)
	assert.Equal(t, moderation.StatusApproved, first.Status)

	second, err := svc.ApproveComment(context.Background(), comment.ID)
	require.NoError(t, err)
	assert.Equal(t, moderation.StatusApproved, second.Status)

	// Each approve action sends its own notification.
	assert.Len(t, notifier.callsOf("approved"), 2)
}

func TestRejectUsesGivenReason(t *testing.T) {
	t.Parallel()

	svc, _, notifier := newTestService(t)

	comment, err := svc.SubmitComment(context.Background(), moderation.SubmitCommentRequest{
		PostID:  "post-1",
		Name:    "Jane",
		Email:   "jane@example.com",
		Content: "Great write-up.",
	})
	require.NoError(t, err)

	rejected, err := svc.RejectComment(context.Background(), comment.ID, "off topic")
	require.NoError(t, err)
	assert.Equal(t, moderation.StatusRejected, rejected.Status)

	calls := notifier.callsOf("rejected")
	require.Len(t, calls, 1)
	assert.Equal(t, "off topic", calls[0].reason)
}

func TestApproveDeliveryFailureKeepsState(t *testing.T) {
	t.Parallel()

	svc, repo, notifier := newTestService(t)

	comment, err := svc.SubmitComment(context.Background(), moderation.SubmitCommentRequest{
		PostID:  "post-1",
		Name:    "Spammer",
		Email:   "spam@example.com",
		Content: "payday loan offer",
	})
	require.NoError(t, err)

	notifier.fail = &notifications.DeliveryError{Recipient: comment.Email, Err: errors.New("smtp down")}

	updated, err := svc.ApproveComment(context.Background(), comment.ID)
	require.Error(t, err)

	var deliveryErr *notifications.DeliveryError
	assert.ErrorAs(t, err, &deliveryErr)

	require.NotNil(t, updated)
	assert.Equal(t, moderation.StatusApproved, updated.Status)

	stored, err := repo.Find(context.Background(), comment.ID)
	require.NoError(t, err)
	assert.Equal(t, moderation.StatusApproved, stored.Status)
}

func TestApproveMissingComment(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)

	_, err := svc.ApproveComment(context.Background(), "no-such-id")
	require.Error(t, err)

	notFoundErr := moderation.CommentNotFoundError{}
	assert.ErrorAs(t, err, &notFoundErr)
}
