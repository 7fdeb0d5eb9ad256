package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/todiane/djangify/blog"
	"github.com/todiane/djangify/portfolio"
)

type projectImageResponse struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Image     string    `json:"image"`
	Caption   string    `json:"caption"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newProjectImageResponse(image *portfolio.ProjectImage) projectImageResponse {
	return projectImageResponse{
		ID:        image.ID,
		ProjectID: image.ProjectID,
		Image:     image.Image,
		Caption:   image.Caption,
		Order:     image.Order,
		CreatedAt: image.CreatedAt,
		UpdatedAt: image.UpdatedAt,
	}
}

func (h *Handler) HandleListProjectImages() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params := &portfolio.ListProjectImagesParams{}

		if projectSlug := r.URL.Query().Get("project"); projectSlug != "" {
			project, err := h.portfolioSvc.GetProjectBySlug(r.Context(), projectSlug)
			if err != nil {
				h.respondError(w, r, err)

				return
			}

			params.ProjectID = project.ID
		}

		page, pageSize := parsePageParams(r)
		params.Limit = pageSize
		params.Offset = pageOffset(page, pageSize)

		images, err := h.portfolioSvc.ListImages(r.Context(), params)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		count, err := h.portfolioSvc.CountImages(r.Context(), params)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		results := make([]projectImageResponse, 0, len(images))
		for _, image := range images {
			results = append(results, newProjectImageResponse(image))
		}

		writeJSON(w, http.StatusOK, buildPage(r.URL, count, page, pageSize, results))
	})
}

type addProjectImageRequest struct {
	Project string `json:"project"`
	Image   string `json:"image"`
	Caption string `json:"caption"`
	Order   int    `json:"order"`
}

// HandleAddProjectImage accepts either a JSON body referencing an already
// uploaded media path, or a multipart form carrying the image file
// itself.
func (h *Handler) HandleAddProjectImage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req addProjectImageRequest

		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			path, err := h.saveUpload(r, "image")
			if err != nil {
				h.respondError(w, r, err)

				return
			}

			req.Project = r.FormValue("project")
			req.Image = path
			req.Caption = r.FormValue("caption")

			if rawOrder := r.FormValue("order"); rawOrder != "" {
				order, err := strconv.Atoi(rawOrder)
				if err != nil {
					h.respondError(w, r, blog.ValidationError{Field: "order", Detail: "must be an integer"})

					return
				}

				req.Order = order
			}
		} else {
			err := decodeJSON(r, &req)
			if err != nil {
				h.respondError(w, r, err)

				return
			}
		}

		if req.Image == "" {
			h.respondError(w, r, blog.ValidationError{Field: "image", Detail: "must not be empty"})

			return
		}

		image, err := h.portfolioSvc.AddImage(r.Context(), portfolio.AddImageRequest{
			ProjectSlug: req.Project,
			Image:       req.Image,
			Caption:     req.Caption,
			Order:       req.Order,
		})
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		h.invalidateProject(req.Project)

		respondSuccess(w, http.StatusCreated, newProjectImageResponse(image), "project image added")
	})
}

func (h *Handler) HandleGetProjectImage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		image, err := h.portfolioSvc.GetImage(r.Context(), r.PathValue("id"))
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		respondSuccess(w, http.StatusOK, newProjectImageResponse(image), "")
	})
}

func (h *Handler) HandleDeleteProjectImage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := h.portfolioSvc.DeleteImage(r.Context(), r.PathValue("id"))
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		respondSuccess(w, http.StatusOK, nil, "project image deleted")
	})
}

type reorderProjectImageRequest struct {
	Order int `json:"order"`
}

func (h *Handler) HandleReorderProjectImage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req reorderProjectImageRequest

		err := decodeJSON(r, &req)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		image, err := h.portfolioSvc.ReorderImage(r.Context(), r.PathValue("id"), req.Order)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		respondSuccess(w, http.StatusOK, newProjectImageResponse(image), "project image reordered")
	})
}
