package api

import (
	"net/http"
	"time"

	"github.com/todiane/djangify/blog"
)

type tagResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	PostCount uint64    `json:"post_count,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (h *Handler) buildTagResponse(r *http.Request, tag *blog.Tag) (*tagResponse, error) {
	postCount, err := h.blogSvc.CountTagPosts(r.Context(), tag.ID)
	if err != nil {
		return nil, err
	}

	return &tagResponse{
		ID:        tag.ID,
		Name:      tag.Name,
		Slug:      tag.Slug,
		PostCount: postCount,
		CreatedAt: tag.CreatedAt,
		UpdatedAt: tag.UpdatedAt,
	}, nil
}

func (h *Handler) HandleListTags() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params := &blog.ListTagsParams{
			Search: r.URL.Query().Get("search"),
		}

		page, pageSize := parsePageParams(r)
		params.Limit = pageSize
		params.Offset = pageOffset(page, pageSize)

		tags, err := h.blogSvc.ListTags(r.Context(), params)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		count, err := h.blogSvc.CountTags(r.Context(), params)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		results := make([]*tagResponse, 0, len(tags))

		for _, tag := range tags {
			response, err := h.buildTagResponse(r, tag)
			if err != nil {
				h.respondError(w, r, err)

				return
			}

			results = append(results, response)
		}

		writeJSON(w, http.StatusOK, buildPage(r.URL, count, page, pageSize, results))
	})
}

func (h *Handler) HandleGetTag() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tag, err := h.blogSvc.GetTagBySlug(r.Context(), r.PathValue("slug"))
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		response, err := h.buildTagResponse(r, tag)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		respondSuccess(w, http.StatusOK, response, "")
	})
}

type createTagRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (h *Handler) HandleCreateTag() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req createTagRequest

		err := decodeJSON(r, &req)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		tag, err := h.blogSvc.CreateTag(r.Context(), blog.CreateTagRequest{
			Name: req.Name,
			Slug: req.Slug,
		})
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		response, err := h.buildTagResponse(r, tag)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		respondSuccess(w, http.StatusCreated, response, "tag created")
	})
}
