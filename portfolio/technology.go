package portfolio

import (
	"context"
	"fmt"
	"time"
)

type Technology struct {
	ID        string
	Name      string
	Slug      string
	Icon      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ListTechnologiesParams struct {
	// Search matches case-insensitively against name.
	Search string
	Limit  uint64
	Offset uint64
}

type TechnologyRepository interface {
	Insert(ctx context.Context, technology *Technology) (err error)
	Find(ctx context.Context, id string) (technology *Technology, err error)
	FindBySlug(ctx context.Context, slug string) (technology *Technology, err error)
	FindBySlugs(ctx context.Context, slugs []string) (technologies []*Technology, err error)
	List(ctx context.Context, params *ListTechnologiesParams) (technologies []*Technology, err error)
	Count(ctx context.Context, params *ListTechnologiesParams) (count uint64, err error)
	CountProjects(ctx context.Context, technologyID string) (count uint64, err error)
}

type TechnologyNotFoundError struct {
	Slug string
}

func (err TechnologyNotFoundError) Error() string {
	return fmt.Sprintf("technology with slug %q not found", err.Slug)
}
