package api

import (
	"net/http"
	"time"

	"github.com/todiane/djangify/portfolio"
)

type technologyResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Icon         string    `json:"icon"`
	ProjectCount uint64    `json:"project_count,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func newTechnologyResponse(technology *portfolio.Technology, projectCount uint64) technologyResponse {
	return technologyResponse{
		ID:           technology.ID,
		Name:         technology.Name,
		Slug:         technology.Slug,
		Icon:         technology.Icon,
		ProjectCount: projectCount,
		CreatedAt:    technology.CreatedAt,
		UpdatedAt:    technology.UpdatedAt,
	}
}

func (h *Handler) HandleListTechnologies() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params := &portfolio.ListTechnologiesParams{
			Search: r.URL.Query().Get("search"),
		}

		page, pageSize := parsePageParams(r)
		params.Limit = pageSize
		params.Offset = pageOffset(page, pageSize)

		technologies, err := h.portfolioSvc.ListTechnologies(r.Context(), params)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		count, err := h.portfolioSvc.CountTechnologies(r.Context(), params)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		results := make([]technologyResponse, 0, len(technologies))

		for _, technology := range technologies {
			projectCount, err := h.portfolioSvc.CountTechnologyProjects(r.Context(), technology.ID)
			if err != nil {
				h.respondError(w, r, err)

				return
			}

			results = append(results, newTechnologyResponse(technology, projectCount))
		}

		writeJSON(w, http.StatusOK, buildPage(r.URL, count, page, pageSize, results))
	})
}

func (h *Handler) HandleGetTechnology() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		technology, err := h.portfolioSvc.GetTechnologyBySlug(r.Context(), r.PathValue("slug"))
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		projectCount, err := h.portfolioSvc.CountTechnologyProjects(r.Context(), technology.ID)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		respondSuccess(w, http.StatusOK, newTechnologyResponse(technology, projectCount), "")
	})
}

type createTechnologyRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
	Icon string `json:"icon"`
}

func (h *Handler) HandleCreateTechnology() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req createTechnologyRequest

		err := decodeJSON(r, &req)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		technology, err := h.portfolioSvc.CreateTechnology(r.Context(), portfolio.CreateTechnologyRequest{
			Name: req.Name,
			Slug: req.Slug,
			Icon: req.Icon,
		})
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		respondSuccess(w, http.StatusCreated, newTechnologyResponse(technology, 0), "technology created")
	})
}
