package api

import (
	"net/http"
	"time"

	"github.com/todiane/djangify/blog"
	"github.com/todiane/djangify/portfolio"
)

type projectResponse struct {
	ID               string                 `json:"id"`
	Title            string                 `json:"title"`
	Slug             string                 `json:"slug"`
	Description      string                 `json:"description"`
	ShortDescription string                 `json:"short_description"`
	FeaturedImage    string                 `json:"featured_image"`
	ProjectURL       string                 `json:"project_url"`
	GithubURL        string                 `json:"github_url"`
	IsFeatured       bool                   `json:"is_featured"`
	Order            int                    `json:"order"`
	Technologies     []technologyResponse   `json:"technologies"`
	Images           []projectImageResponse `json:"images"`
	MetaTitle        string                 `json:"meta_title"`
	MetaDescription  string                 `json:"meta_description"`
	MetaKeywords     string                 `json:"meta_keywords"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

func newProjectResponse(project *portfolio.Project) *projectResponse {
	technologies := make([]technologyResponse, 0, len(project.Technologies))
	for _, technology := range project.Technologies {
		technologies = append(technologies, newTechnologyResponse(technology, 0))
	}

	images := make([]projectImageResponse, 0, len(project.Images))
	for _, image := range project.Images {
		images = append(images, newProjectImageResponse(image))
	}

	return &projectResponse{
		ID:               project.ID,
		Title:            project.Title,
		Slug:             project.Slug,
		Description:      project.Description,
		ShortDescription: project.ShortDescription,
		FeaturedImage:    project.FeaturedImage,
		ProjectURL:       project.ProjectURL,
		GithubURL:        project.GithubURL,
		IsFeatured:       project.IsFeatured,
		Order:            project.Order,
		Technologies:     technologies,
		Images:           images,
		MetaTitle:        project.SEO.MetaTitle,
		MetaDescription:  project.SEO.MetaDescription,
		MetaKeywords:     project.SEO.MetaKeywords,
		CreatedAt:        project.CreatedAt,
		UpdatedAt:        project.UpdatedAt,
	}
}

func newProjectResponses(projects []*portfolio.Project) []*projectResponse {
	responses := make([]*projectResponse, 0, len(projects))
	for _, project := range projects {
		responses = append(responses, newProjectResponse(project))
	}

	return responses
}

func (h *Handler) HandleListProjects() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		params := &portfolio.ListProjectsParams{
			Search:          q.Get("search"),
			TechnologySlugs: splitCSV(q.Get("technologies")),
			OrderBy:         q.Get("ordering"),
		}

		isFeatured, err := parseBoolParam(q, "is_featured")
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		params.IsFeatured = isFeatured

		page, pageSize := parsePageParams(r)
		params.Limit = pageSize
		params.Offset = pageOffset(page, pageSize)

		projects, err := h.portfolioSvc.ListProjects(r.Context(), params)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		count, err := h.portfolioSvc.CountProjects(r.Context(), params)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		writeJSON(w, http.StatusOK, buildPage(r.URL, count, page, pageSize, newProjectResponses(projects)))
	})
}

func (h *Handler) HandleGetProject() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.serveCached(w, r) {
			return
		}

		project, err := h.portfolioSvc.GetProjectBySlug(r.Context(), r.PathValue("slug"))
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		h.respondDetail(w, r, newProjectResponse(project))
	})
}

type createProjectRequest struct {
	Title            string   `json:"title"`
	Slug             string   `json:"slug"`
	Description      string   `json:"description"`
	ShortDescription string   `json:"short_description"`
	Technologies     []string `json:"technologies"`
	ProjectURL       string   `json:"project_url"`
	GithubURL        string   `json:"github_url"`
	IsFeatured       bool     `json:"is_featured"`
	Order            int      `json:"order"`
	FeaturedImage    string   `json:"featured_image"`
	MetaTitle        string   `json:"meta_title"`
	MetaDescription  string   `json:"meta_description"`
	MetaKeywords     string   `json:"meta_keywords"`
}

func (h *Handler) HandleCreateProject() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req createProjectRequest

		err := decodeJSON(r, &req)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		project, err := h.portfolioSvc.CreateProject(r.Context(), portfolio.CreateProjectRequest{
			Title:            req.Title,
			Slug:             req.Slug,
			Description:      req.Description,
			ShortDescription: req.ShortDescription,
			TechnologySlugs:  req.Technologies,
			ProjectURL:       req.ProjectURL,
			GithubURL:        req.GithubURL,
			IsFeatured:       req.IsFeatured,
			Order:            req.Order,
			FeaturedImage:    req.FeaturedImage,
			SEO: blog.SEO{
				MetaTitle:       req.MetaTitle,
				MetaDescription: req.MetaDescription,
				MetaKeywords:    req.MetaKeywords,
			},
		})
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		respondSuccess(w, http.StatusCreated, newProjectResponse(project), "project created")
	})
}

type updateProjectRequest struct {
	Title            *string  `json:"title"`
	Description      *string  `json:"description"`
	ShortDescription *string  `json:"short_description"`
	Technologies     []string `json:"technologies"`
	ProjectURL       *string  `json:"project_url"`
	GithubURL        *string  `json:"github_url"`
	IsFeatured       *bool    `json:"is_featured"`
	Order            *int     `json:"order"`
	MetaTitle        *string  `json:"meta_title"`
	MetaDescription  *string  `json:"meta_description"`
	MetaKeywords     *string  `json:"meta_keywords"`
}

func (h *Handler) HandleUpdateProject() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")

		var req updateProjectRequest

		err := decodeJSON(r, &req)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		updateReq := portfolio.UpdateProjectRequest{
			Title:            req.Title,
			Description:      req.Description,
			ShortDescription: req.ShortDescription,
			TechnologySlugs:  req.Technologies,
			ProjectURL:       req.ProjectURL,
			GithubURL:        req.GithubURL,
			IsFeatured:       req.IsFeatured,
			Order:            req.Order,
		}

		if req.MetaTitle != nil || req.MetaDescription != nil || req.MetaKeywords != nil {
			project, err := h.portfolioSvc.GetProjectBySlug(r.Context(), slug)
			if err != nil {
				h.respondError(w, r, err)

				return
			}

			seo := project.SEO

			if req.MetaTitle != nil {
				seo.MetaTitle = *req.MetaTitle
			}

			if req.MetaDescription != nil {
				seo.MetaDescription = *req.MetaDescription
			}

			if req.MetaKeywords != nil {
				seo.MetaKeywords = *req.MetaKeywords
			}

			updateReq.SEO = &seo
		}

		project, err := h.portfolioSvc.UpdateProject(r.Context(), slug, updateReq)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		h.invalidateProject(slug)

		respondSuccess(w, http.StatusOK, newProjectResponse(project), "project updated")
	})
}

func (h *Handler) HandleDeleteProject() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")

		err := h.portfolioSvc.DeleteProject(r.Context(), slug)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		h.invalidateProject(slug)

		respondSuccess(w, http.StatusOK, nil, "project deleted")
	})
}

func (h *Handler) HandleToggleProjectFeatured() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")

		project, err := h.portfolioSvc.ToggleFeatured(r.Context(), slug)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		h.invalidateProject(slug)

		respondSuccess(w, http.StatusOK, map[string]any{
			"slug":        project.Slug,
			"is_featured": project.IsFeatured,
		}, "featured flag toggled")
	})
}

func (h *Handler) HandleUploadProjectFeaturedImage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")

		path, err := h.saveUpload(r, "featured_image")
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		project, err := h.portfolioSvc.SetFeaturedImage(r.Context(), slug, path)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		h.invalidateProject(slug)

		respondSuccess(w, http.StatusOK, map[string]any{
			"slug":           project.Slug,
			"featured_image": project.FeaturedImage,
		}, "featured image uploaded")
	})
}
