package blog

import (
	"context"
	"fmt"
	"time"
)

type Category struct {
	ID          string
	Name        string
	Slug        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ListCategoriesParams struct {
	// Search matches case-insensitively against name and description.
	Search string
	Limit  uint64
	Offset uint64
}

type CategoryRepository interface {
	Insert(ctx context.Context, category *Category) (err error)
	Find(ctx context.Context, id string) (category *Category, err error)
	FindBySlug(ctx context.Context, slug string) (category *Category, err error)
	List(ctx context.Context, params *ListCategoriesParams) (categories []*Category, err error)
	Count(ctx context.Context, params *ListCategoriesParams) (count uint64, err error)
	CountPosts(ctx context.Context, categoryID string) (count uint64, err error)
}

type CategoryNotFoundError struct {
	Slug string
}

func (err CategoryNotFoundError) Error() string {
	return fmt.Sprintf("category with slug %q not found", err.Slug)
}
