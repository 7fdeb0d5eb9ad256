// Package portfolio owns projects, technologies, and project gallery
// images.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/todiane/djangify/blog"
)

type Service struct {
	projectRepo    ProjectRepository
	technologyRepo TechnologyRepository
	imageRepo      ProjectImageRepository
}

func NewService(projectRepo ProjectRepository, technologyRepo TechnologyRepository, imageRepo ProjectImageRepository) *Service {
	return &Service{
		projectRepo:    projectRepo,
		technologyRepo: technologyRepo,
		imageRepo:      imageRepo,
	}
}

type CreateProjectRequest struct {
	Title            string
	Slug             string
	Description      string
	ShortDescription string
	TechnologySlugs  []string
	ProjectURL       string
	GithubURL        string
	IsFeatured       bool
	Order            int
	SEO              blog.SEO
	FeaturedImage    string
}

func (svc *Service) CreateProject(ctx context.Context, req CreateProjectRequest) (*Project, error) {
	if req.Title == "" {
		return nil, blog.ValidationError{Field: "title", Detail: "must not be empty"}
	}

	projectSlug := req.Slug
	if projectSlug == "" {
		projectSlug = slug.Make(req.Title)
	}

	_, err := svc.projectRepo.FindBySlug(ctx, projectSlug)
	if err == nil {
		return nil, ProjectAlreadyExistsError{Slug: projectSlug}
	}

	var notFoundErr ProjectNotFoundError
	if !errors.As(err, &notFoundErr) {
		return nil, fmt.Errorf("failed to check slug uniqueness: %w", err)
	}

	technologies, err := svc.resolveTechnologies(ctx, req.TechnologySlugs)
	if err != nil {
		return nil, err
	}

	timeNow := time.Now()

	project := &Project{
		ID:               uuid.NewString(),
		Title:            req.Title,
		Slug:             projectSlug,
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		FeaturedImage:    req.FeaturedImage,
		ProjectURL:       req.ProjectURL,
		GithubURL:        req.GithubURL,
		IsFeatured:       req.IsFeatured,
		Order:            req.Order,
		SEO:              req.SEO,
		CreatedAt:        timeNow,
		UpdatedAt:        timeNow,
		Technologies:     technologies,
	}

	err = svc.projectRepo.Insert(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("failed to insert project: %w", err)
	}

	return project, nil
}

type UpdateProjectRequest struct {
	Title            *string
	Description      *string
	ShortDescription *string
	TechnologySlugs  []string
	ProjectURL       *string
	GithubURL        *string
	IsFeatured       *bool
	Order            *int
	SEO              *blog.SEO
}

func (svc *Service) UpdateProject(ctx context.Context, projectSlug string, req UpdateProjectRequest) (*Project, error) {
	project, err := svc.projectRepo.FindBySlug(ctx, projectSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, blog.ValidationError{Field: "title", Detail: "must not be empty"}
		}

		project.Title = *req.Title
	}

	if req.Description != nil {
		project.Description = *req.Description
	}

	if req.ShortDescription != nil {
		project.ShortDescription = *req.ShortDescription
	}

	if req.TechnologySlugs != nil {
		technologies, err := svc.resolveTechnologies(ctx, req.TechnologySlugs)
		if err != nil {
			return nil, err
		}

		project.Technologies = technologies
	}

	if req.ProjectURL != nil {
		project.ProjectURL = *req.ProjectURL
	}

	if req.GithubURL != nil {
		project.GithubURL = *req.GithubURL
	}

	if req.IsFeatured != nil {
		project.IsFeatured = *req.IsFeatured
	}

	if req.Order != nil {
		project.Order = *req.Order
	}

	if req.SEO != nil {
		project.SEO = *req.SEO
	}

	project.UpdatedAt = time.Now()

	err = svc.projectRepo.Update(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return project, nil
}

func (svc *Service) DeleteProject(ctx context.Context, projectSlug string) error {
	project, err := svc.projectRepo.FindBySlug(ctx, projectSlug)
	if err != nil {
		return fmt.Errorf("failed to find project: %w", err)
	}

	err = svc.projectRepo.Delete(ctx, project.ID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	return nil
}

func (svc *Service) GetProjectBySlug(ctx context.Context, projectSlug string) (*Project, error) {
	project, err := svc.projectRepo.FindBySlug(ctx, projectSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	return project, nil
}

func (svc *Service) ListProjects(ctx context.Context, params *ListProjectsParams) ([]*Project, error) {
	projects, err := svc.projectRepo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	return projects, nil
}

func (svc *Service) CountProjects(ctx context.Context, params *ListProjectsParams) (uint64, error) {
	count, err := svc.projectRepo.Count(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}

	return count, nil
}

func (svc *Service) ToggleFeatured(ctx context.Context, projectSlug string) (*Project, error) {
	project, err := svc.projectRepo.FindBySlug(ctx, projectSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	project.IsFeatured = !project.IsFeatured
	project.UpdatedAt = time.Now()

	err = svc.projectRepo.Update(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return project, nil
}

func (svc *Service) SetFeaturedImage(ctx context.Context, projectSlug, imagePath string) (*Project, error) {
	project, err := svc.projectRepo.FindBySlug(ctx, projectSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	project.FeaturedImage = imagePath
	project.UpdatedAt = time.Now()

	err = svc.projectRepo.Update(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return project, nil
}

func (svc *Service) GetTechnologyBySlug(ctx context.Context, technologySlug string) (*Technology, error) {
	technology, err := svc.technologyRepo.FindBySlug(ctx, technologySlug)
	if err != nil {
		return nil, fmt.Errorf("failed to find technology: %w", err)
	}

	return technology, nil
}

func (svc *Service) ListTechnologies(ctx context.Context, params *ListTechnologiesParams) ([]*Technology, error) {
	technologies, err := svc.technologyRepo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list technologies: %w", err)
	}

	return technologies, nil
}

func (svc *Service) CountTechnologies(ctx context.Context, params *ListTechnologiesParams) (uint64, error) {
	count, err := svc.technologyRepo.Count(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("failed to count technologies: %w", err)
	}

	return count, nil
}

func (svc *Service) CountTechnologyProjects(ctx context.Context, technologyID string) (uint64, error) {
	count, err := svc.technologyRepo.CountProjects(ctx, technologyID)
	if err != nil {
		return 0, fmt.Errorf("failed to count technology projects: %w", err)
	}

	return count, nil
}

type CreateTechnologyRequest struct {
	Name string
	Slug string
	Icon string
}

func (svc *Service) CreateTechnology(ctx context.Context, req CreateTechnologyRequest) (*Technology, error) {
	if req.Name == "" {
		return nil, blog.ValidationError{Field: "name", Detail: "must not be empty"}
	}

	technologySlug := req.Slug
	if technologySlug == "" {
		technologySlug = slug.Make(req.Name)
	}

	timeNow := time.Now()

	technology := &Technology{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Slug:      technologySlug,
		Icon:      req.Icon,
		CreatedAt: timeNow,
		UpdatedAt: timeNow,
	}

	err := svc.technologyRepo.Insert(ctx, technology)
	if err != nil {
		return nil, fmt.Errorf("failed to insert technology: %w", err)
	}

	return technology, nil
}

type AddImageRequest struct {
	ProjectSlug string
	Image       string
	Caption     string
	Order       int
}

func (svc *Service) AddImage(ctx context.Context, req AddImageRequest) (*ProjectImage, error) {
	project, err := svc.projectRepo.FindBySlug(ctx, req.ProjectSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	timeNow := time.Now()

	image := &ProjectImage{
		ID:        uuid.NewString(),
		ProjectID: project.ID,
		Image:     req.Image,
		Caption:   req.Caption,
		Order:     req.Order,
		CreatedAt: timeNow,
		UpdatedAt: timeNow,
	}

	err = svc.imageRepo.Insert(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("failed to insert project image: %w", err)
	}

	return image, nil
}

func (svc *Service) GetImage(ctx context.Context, imageID string) (*ProjectImage, error) {
	image, err := svc.imageRepo.Find(ctx, imageID)
	if err != nil {
		return nil, fmt.Errorf("failed to find project image: %w", err)
	}

	return image, nil
}

func (svc *Service) ListImages(ctx context.Context, params *ListProjectImagesParams) ([]*ProjectImage, error) {
	images, err := svc.imageRepo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list project images: %w", err)
	}

	return images, nil
}

func (svc *Service) CountImages(ctx context.Context, params *ListProjectImagesParams) (uint64, error) {
	count, err := svc.imageRepo.Count(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("failed to count project images: %w", err)
	}

	return count, nil
}

func (svc *Service) DeleteImage(ctx context.Context, imageID string) error {
	err := svc.imageRepo.Delete(ctx, imageID)
	if err != nil {
		return fmt.Errorf("failed to delete project image: %w", err)
	}

	return nil
}

// ReorderImage sets the display order of a gallery image.
func (svc *Service) ReorderImage(ctx context.Context, imageID string, order int) (*ProjectImage, error) {
	image, err := svc.imageRepo.Find(ctx, imageID)
	if err != nil {
		return nil, fmt.Errorf("failed to find project image: %w", err)
	}

	image.Order = order
	image.UpdatedAt = time.Now()

	err = svc.imageRepo.Update(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("failed to update project image: %w", err)
	}

	return image, nil
}

func (svc *Service) resolveTechnologies(ctx context.Context, technologySlugs []string) ([]*Technology, error) {
	if len(technologySlugs) == 0 {
		return nil, nil
	}

	technologies, err := svc.technologyRepo.FindBySlugs(ctx, technologySlugs)
	if err != nil {
		return nil, fmt.Errorf("failed to find technologies: %w", err)
	}

	if len(technologies) != len(technologySlugs) {
		known := make(map[string]struct{}, len(technologies))
		for _, technology := range technologies {
			known[technology.Slug] = struct{}{}
		}

		for _, technologySlug := range technologySlugs {
			if _, ok := known[technologySlug]; !ok {
				return nil, blog.ValidationError{Field: "technologies", Detail: fmt.Sprintf("unknown technology %q", technologySlug)}
			}
		}
	}

	return technologies, nil
}
