package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/todiane/djangify/blog"
)

type Project struct {
	ID               string
	Title            string
	Slug             string
	Description      string
	ShortDescription string
	FeaturedImage    string
	ProjectURL       string
	GithubURL        string
	IsFeatured       bool
	Order            int
	SEO              blog.SEO
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Technologies and Images are populated by the repository on reads.
	Technologies []*Technology
	Images       []*ProjectImage
}

type ListProjectsParams struct {
	// Search matches case-insensitively against title, description, and
	// short description (logical OR).
	Search string

	// TechnologySlugs matches projects using any of the given
	// technologies; results are de-duplicated.
	TechnologySlugs []string

	IsFeatured *bool

	OrderBy string
	Limit   uint64
	Offset  uint64
}

type ProjectRepository interface {
	Insert(ctx context.Context, project *Project) (err error)
	Update(ctx context.Context, project *Project) (err error)
	Delete(ctx context.Context, id string) (err error)
	Find(ctx context.Context, id string) (project *Project, err error)
	FindBySlug(ctx context.Context, slug string) (project *Project, err error)
	List(ctx context.Context, params *ListProjectsParams) (projects []*Project, err error)
	Count(ctx context.Context, params *ListProjectsParams) (count uint64, err error)
}

type ProjectNotFoundError struct {
	Slug string
}

func (err ProjectNotFoundError) Error() string {
	return fmt.Sprintf("project with slug %q not found", err.Slug)
}

type ProjectAlreadyExistsError struct {
	Slug string
}

func (err ProjectAlreadyExistsError) Error() string {
	return fmt.Sprintf("project with slug %q already exists", err.Slug)
}
