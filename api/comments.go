package api

import (
	"errors"
	"net/http"
	"net/mail"
	"time"

	"github.com/todiane/djangify/blog"
	"github.com/todiane/djangify/moderation"
	"github.com/todiane/djangify/notifications"
)

type commentResponse struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Content   string    `json:"content"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// newCommentResponse hides the author email from non-staff readers.
func newCommentResponse(comment *moderation.Comment, staff bool) commentResponse {
	response := commentResponse{
		ID:        comment.ID,
		PostID:    comment.PostID,
		Name:      comment.Name,
		Email:     "",
		Content:   comment.Content,
		Status:    string(comment.Status),
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
	}

	if staff {
		response.Email = comment.Email
	}

	return response
}

func newCommentResponses(comments []*moderation.Comment, staff bool) []commentResponse {
	responses := make([]commentResponse, 0, len(comments))
	for _, comment := range comments {
		responses = append(responses, newCommentResponse(comment, staff))
	}

	return responses
}

func (h *Handler) HandleListPostComments() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")

		post, err := h.blogSvc.GetPostBySlug(r.Context(), slug)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		if post.Status != blog.PostStatusPublished && !isStaff(r) {
			h.respondError(w, r, blog.PostNotFoundError{Slug: slug})

			return
		}

		params := &moderation.ListCommentsParams{
			PostID: post.ID,
			Status: moderation.StatusApproved,
		}

		// Staff can inspect any moderation state.
		if isStaff(r) {
			params.Status = moderation.Status(r.URL.Query().Get("status"))
			if params.Status != "" && !params.Status.Valid() {
				h.respondError(w, r, blog.ValidationError{Field: "status", Detail: "must be pending, approved, or rejected"})

				return
			}
		}

		page, pageSize := parsePageParams(r)
		params.Limit = pageSize
		params.Offset = pageOffset(page, pageSize)

		comments, err := h.moderationSvc.ListComments(r.Context(), params)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		count, err := h.moderationSvc.CountComments(r.Context(), params)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		results := newCommentResponses(comments, isStaff(r))

		writeJSON(w, http.StatusOK, buildPage(r.URL, count, page, pageSize, results))
	})
}

type submitCommentRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Content string `json:"content"`
}

func (h *Handler) HandleSubmitComment() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")

		post, err := h.blogSvc.GetPostBySlug(r.Context(), slug)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		if post.Status != blog.PostStatusPublished && !isStaff(r) {
			h.respondError(w, r, blog.PostNotFoundError{Slug: slug})

			return
		}

		var req submitCommentRequest

		err = decodeJSON(r, &req)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		if req.Name == "" {
			h.respondError(w, r, blog.ValidationError{Field: "name", Detail: "must not be empty"})

			return
		}

		if req.Content == "" {
			h.respondError(w, r, blog.ValidationError{Field: "content", Detail: "must not be empty"})

			return
		}

		_, err = mail.ParseAddress(req.Email)
		if err != nil {
			h.respondError(w, r, blog.ValidationError{Field: "email", Detail: "must be a valid email address"})

			return
		}

		comment, err := h.moderationSvc.SubmitComment(r.Context(), moderation.SubmitCommentRequest{
			PostID:  post.ID,
			Name:    req.Name,
			Email:   req.Email,
			Content: req.Content,
			AsStaff: isStaff(r),
		})
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		h.invalidatePost(slug)

		respondSuccess(w, http.StatusCreated, newCommentResponse(comment, isStaff(r)), "comment submitted")
	})
}

func (h *Handler) parseListCommentsParams(r *http.Request) (*moderation.ListCommentsParams, error) {
	q := r.URL.Query()

	params := &moderation.ListCommentsParams{
		Status: moderation.Status(q.Get("status")),
	}

	if params.Status != "" && !params.Status.Valid() {
		return nil, blog.ValidationError{Field: "status", Detail: "must be pending, approved, or rejected"}
	}

	if postSlug := q.Get("post"); postSlug != "" {
		post, err := h.blogSvc.GetPostBySlug(r.Context(), postSlug)
		if err != nil {
			return nil, err
		}

		params.PostID = post.ID
	}

	var err error

	params.CreatedAfter, err = parseTimeParam(q, "created_after", false)
	if err != nil {
		return nil, err
	}

	params.CreatedBefore, err = parseTimeParam(q, "created_before", true)
	if err != nil {
		return nil, err
	}

	return params, nil
}

func (h *Handler) HandleListComments() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params, err := h.parseListCommentsParams(r)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		page, pageSize := parsePageParams(r)
		params.Limit = pageSize
		params.Offset = pageOffset(page, pageSize)

		comments, err := h.moderationSvc.ListComments(r.Context(), params)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		count, err := h.moderationSvc.CountComments(r.Context(), params)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		writeJSON(w, http.StatusOK, buildPage(r.URL, count, page, pageSize, newCommentResponses(comments, true)))
	})
}

func (h *Handler) HandleGetComment() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		comment, err := h.moderationSvc.GetComment(r.Context(), r.PathValue("id"))
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		respondSuccess(w, http.StatusOK, newCommentResponse(comment, true), "")
	})
}

func (h *Handler) HandleApproveComment() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		comment, err := h.moderationSvc.ApproveComment(r.Context(), r.PathValue("id"))

		h.respondModerated(w, r, comment, err, "comment approved")
	})
}

type rejectCommentRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) HandleRejectComment() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rejectCommentRequest

		if r.ContentLength > 0 {
			err := decodeJSON(r, &req)
			if err != nil {
				h.respondError(w, r, err)

				return
			}
		}

		comment, err := h.moderationSvc.RejectComment(r.Context(), r.PathValue("id"), req.Reason)

		h.respondModerated(w, r, comment, err, "comment rejected")
	})
}

// respondModerated handles the shared approve/reject outcome: a delivery
// failure after a successful state change is a warning, not an error.
func (h *Handler) respondModerated(w http.ResponseWriter, r *http.Request, comment *moderation.Comment, err error, message string) {
	if err != nil {
		var deliveryErr *notifications.DeliveryError
		if comment == nil || !errors.As(err, &deliveryErr) {
			h.respondError(w, r, err)

			return
		}

		message += " but the notification email failed to send"
	}

	if post, resolveErr := h.blogSvc.ResolvePost(r.Context(), comment.PostID); resolveErr == nil {
		h.invalidatePost(post.Slug)
	}

	respondSuccess(w, http.StatusOK, newCommentResponse(comment, true), message)
}
