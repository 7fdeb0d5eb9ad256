package blog

import (
	"context"
	"fmt"
	"time"
)

// PostStatus is the publication state of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

func (s PostStatus) Valid() bool {
	return s == PostStatusDraft || s == PostStatusPublished
}

// SEO holds the metadata fields shared by public-facing entities.
type SEO struct {
	MetaTitle       string
	MetaDescription string
	MetaKeywords    string
}

type Post struct {
	ID            string
	Title         string
	Slug          string
	Content       string
	Excerpt       string
	FeaturedImage string
	CategoryID    string
	Status        PostStatus
	PublishedAt   *time.Time
	IsFeatured    bool
	SEO           SEO
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Tags is populated by the repository on reads.
	Tags []*Tag
}

// ListPostsParams is the declarative predicate set list queries are built
// from. Zero values mean "no constraint".
type ListPostsParams struct {
	// Search matches case-insensitively against title, content, and
	// excerpt (logical OR).
	Search string

	CategorySlug string

	// TagSlugs matches posts carrying any of the given tags; results are
	// de-duplicated.
	TagSlugs []string

	Status     PostStatus
	IsFeatured *bool

	// Inclusive timestamp bounds.
	CreatedAfter    *time.Time
	CreatedBefore   *time.Time
	PublishedAfter  *time.Time
	PublishedBefore *time.Time

	OrderBy string
	Limit   uint64
	Offset  uint64
}

type PostRepository interface {
	Insert(ctx context.Context, post *Post) (err error)
	Update(ctx context.Context, post *Post) (err error)
	Delete(ctx context.Context, id string) (err error)
	Find(ctx context.Context, id string) (post *Post, err error)
	FindBySlug(ctx context.Context, slug string) (post *Post, err error)
	List(ctx context.Context, params *ListPostsParams) (posts []*Post, err error)
	Count(ctx context.Context, params *ListPostsParams) (count uint64, err error)
}

type PostNotFoundError struct {
	Slug string
}

func (err PostNotFoundError) Error() string {
	return fmt.Sprintf("post with slug %q not found", err.Slug)
}

type PostAlreadyExistsError struct {
	Slug string
}

func (err PostAlreadyExistsError) Error() string {
	return fmt.Sprintf("post with slug %q already exists", err.Slug)
}
