package blog

import (
	"context"
	"fmt"
	"time"
)

type Tag struct {
	ID        string
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ListTagsParams struct {
	// Search matches case-insensitively against name.
	Search string
	Limit  uint64
	Offset uint64
}

type TagRepository interface {
	Insert(ctx context.Context, tag *Tag) (err error)
	Find(ctx context.Context, id string) (tag *Tag, err error)
	FindBySlug(ctx context.Context, slug string) (tag *Tag, err error)
	FindBySlugs(ctx context.Context, slugs []string) (tags []*Tag, err error)
	List(ctx context.Context, params *ListTagsParams) (tags []*Tag, err error)
	Count(ctx context.Context, params *ListTagsParams) (count uint64, err error)
	CountPosts(ctx context.Context, tagID string) (count uint64, err error)
}

type TagNotFoundError struct {
	Slug string
}

func (err TagNotFoundError) Error() string {
	return fmt.Sprintf("tag with slug %q not found", err.Slug)
}
