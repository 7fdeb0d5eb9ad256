package api

import (
	"net/http"
	"time"

	"github.com/todiane/djangify/blog"
)

type categoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	PostCount   uint64    `json:"post_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (h *Handler) buildCategoryResponse(r *http.Request, category *blog.Category) (*categoryResponse, error) {
	postCount, err := h.blogSvc.CountCategoryPosts(r.Context(), category.ID)
	if err != nil {
		return nil, err
	}

	return &categoryResponse{
		ID:          category.ID,
		Name:        category.Name,
		Slug:        category.Slug,
		Description: category.Description,
		PostCount:   postCount,
		CreatedAt:   category.CreatedAt,
		UpdatedAt:   category.UpdatedAt,
	}, nil
}

func (h *Handler) HandleListCategories() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params := &blog.ListCategoriesParams{
			Search: r.URL.Query().Get("search"),
		}

		page, pageSize := parsePageParams(r)
		params.Limit = pageSize
		params.Offset = pageOffset(page, pageSize)

		categories, err := h.blogSvc.ListCategories(r.Context(), params)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		count, err := h.blogSvc.CountCategories(r.Context(), params)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		results := make([]*categoryResponse, 0, len(categories))

		for _, category := range categories {
			response, err := h.buildCategoryResponse(r, category)
			if err != nil {
				h.respondError(w, r, err)

				return
			}

			results = append(results, response)
		}

		writeJSON(w, http.StatusOK, buildPage(r.URL, count, page, pageSize, results))
	})
}

func (h *Handler) HandleGetCategory() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		category, err := h.blogSvc.GetCategoryBySlug(r.Context(), r.PathValue("slug"))
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		response, err := h.buildCategoryResponse(r, category)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		respondSuccess(w, http.StatusOK, response, "")
	})
}

type createCategoryRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

func (h *Handler) HandleCreateCategory() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req createCategoryRequest

		err := decodeJSON(r, &req)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		category, err := h.blogSvc.CreateCategory(r.Context(), blog.CreateCategoryRequest{
			Name:        req.Name,
			Slug:        req.Slug,
			Description: req.Description,
		})
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		response, err := h.buildCategoryResponse(r, category)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		respondSuccess(w, http.StatusCreated, response, "category created")
	})
}
