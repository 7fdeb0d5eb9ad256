// Package blog owns posts, categories, and tags.
package blog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/todiane/djangify/moderation"
)

type Service struct {
	postRepo     PostRepository
	categoryRepo CategoryRepository
	tagRepo      TagRepository
}

func NewService(postRepo PostRepository, categoryRepo CategoryRepository, tagRepo TagRepository) *Service {
	return &Service{
		postRepo:     postRepo,
		categoryRepo: categoryRepo,
		tagRepo:      tagRepo,
	}
}

// ValidationError carries field-level detail for bad input.
type ValidationError struct {
	Field  string
	Detail string
}

func (err ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", err.Field, err.Detail)
}

type CreatePostRequest struct {
	Title         string
	Slug          string
	Content       string
	Excerpt       string
	CategorySlug  string
	TagSlugs      []string
	Status        PostStatus
	PublishedAt   *time.Time
	IsFeatured    bool
	SEO           SEO
	FeaturedImage string
}

func (svc *Service) CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error) {
	if req.Title == "" {
		return nil, ValidationError{Field: "title", Detail: "must not be empty"}
	}

	if req.Status == "" {
		req.Status = PostStatusDraft
	}

	if !req.Status.Valid() {
		return nil, ValidationError{Field: "status", Detail: "must be draft or published"}
	}

	postSlug := req.Slug
	if postSlug == "" {
		postSlug = slug.Make(req.Title)
	}

	_, err := svc.postRepo.FindBySlug(ctx, postSlug)
	if err == nil {
		return nil, PostAlreadyExistsError{Slug: postSlug}
	}

	var notFoundErr PostNotFoundError
	if !errors.As(err, &notFoundErr) {
		return nil, fmt.Errorf("failed to check slug uniqueness: %w", err)
	}

	category, err := svc.categoryRepo.FindBySlug(ctx, req.CategorySlug)
	if err != nil {
		var categoryNotFoundErr CategoryNotFoundError
		if errors.As(err, &categoryNotFoundErr) {
			return nil, ValidationError{Field: "category", Detail: fmt.Sprintf("unknown category %q", req.CategorySlug)}
		}

		return nil, fmt.Errorf("failed to find category: %w", err)
	}

	tags, err := svc.resolveTags(ctx, req.TagSlugs)
	if err != nil {
		return nil, err
	}

	publishedAt := req.PublishedAt
	if req.Status == PostStatusPublished && publishedAt == nil {
		now := time.Now()
		publishedAt = &now
	}

	timeNow := time.Now()

	post := &Post{
		ID:            uuid.NewString(),
		Title:         req.Title,
		Slug:          postSlug,
		Content:       req.Content,
		Excerpt:       req.Excerpt,
		FeaturedImage: req.FeaturedImage,
		CategoryID:    category.ID,
		Status:        req.Status,
		PublishedAt:   publishedAt,
		IsFeatured:    req.IsFeatured,
		SEO:           req.SEO,
		CreatedAt:     timeNow,
		UpdatedAt:     timeNow,
		Tags:          tags,
	}

	err = svc.postRepo.Insert(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("failed to insert post: %w", err)
	}

	return post, nil
}

type UpdatePostRequest struct {
	Title        *string
	Content      *string
	Excerpt      *string
	CategorySlug *string
	TagSlugs     []string
	Status       *PostStatus
	PublishedAt  *time.Time
	IsFeatured   *bool
	SEO          *SEO
}

func (svc *Service) UpdatePost(ctx context.Context, postSlug string, req UpdatePostRequest) (*Post, error) {
	post, err := svc.postRepo.FindBySlug(ctx, postSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, ValidationError{Field: "title", Detail: "must not be empty"}
		}

		post.Title = *req.Title
	}

	if req.Content != nil {
		post.Content = *req.Content
	}

	if req.Excerpt != nil {
		post.Excerpt = *req.Excerpt
	}

	if req.CategorySlug != nil {
		category, err := svc.categoryRepo.FindBySlug(ctx, *req.CategorySlug)
		if err != nil {
			var categoryNotFoundErr CategoryNotFoundError
			if errors.As(err, &categoryNotFoundErr) {
				return nil, ValidationError{Field: "category", Detail: fmt.Sprintf("unknown category %q", *req.CategorySlug)}
			}

			return nil, fmt.Errorf("failed to find category: %w", err)
		}

		post.CategoryID = category.ID
	}

	if req.TagSlugs != nil {
		tags, err := svc.resolveTags(ctx, req.TagSlugs)
		if err != nil {
			return nil, err
		}

		post.Tags = tags
	}

	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, ValidationError{Field: "status", Detail: "must be draft or published"}
		}

		if *req.Status == PostStatusPublished && post.PublishedAt == nil {
			now := time.Now()
			post.PublishedAt = &now
		}

		post.Status = *req.Status
	}

	if req.PublishedAt != nil {
		post.PublishedAt = req.PublishedAt
	}

	if req.IsFeatured != nil {
		post.IsFeatured = *req.IsFeatured
	}

	if req.SEO != nil {
		post.SEO = *req.SEO
	}

	post.UpdatedAt = time.Now()

	err = svc.postRepo.Update(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	return post, nil
}

func (svc *Service) DeletePost(ctx context.Context, postSlug string) error {
	post, err := svc.postRepo.FindBySlug(ctx, postSlug)
	if err != nil {
		return fmt.Errorf("failed to find post: %w", err)
	}

	err = svc.postRepo.Delete(ctx, post.ID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	return nil
}

func (svc *Service) GetPostBySlug(ctx context.Context, postSlug string) (*Post, error) {
	post, err := svc.postRepo.FindBySlug(ctx, postSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}

	return post, nil
}

func (svc *Service) ListPosts(ctx context.Context, params *ListPostsParams) ([]*Post, error) {
	posts, err := svc.postRepo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return posts, nil
}

func (svc *Service) CountPosts(ctx context.Context, params *ListPostsParams) (uint64, error) {
	count, err := svc.postRepo.Count(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}

	return count, nil
}

// ToggleFeatured flips the featured flag and returns the updated post.
func (svc *Service) ToggleFeatured(ctx context.Context, postSlug string) (*Post, error) {
	post, err := svc.postRepo.FindBySlug(ctx, postSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}

	post.IsFeatured = !post.IsFeatured
	post.UpdatedAt = time.Now()

	err = svc.postRepo.Update(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	return post, nil
}

// SetFeaturedImage records the stored media path of an uploaded image.
func (svc *Service) SetFeaturedImage(ctx context.Context, postSlug, imagePath string) (*Post, error) {
	post, err := svc.postRepo.FindBySlug(ctx, postSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}

	post.FeaturedImage = imagePath
	post.UpdatedAt = time.Now()

	err = svc.postRepo.Update(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	return post, nil
}

func (svc *Service) GetCategory(ctx context.Context, id string) (*Category, error) {
	category, err := svc.categoryRepo.Find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}

	return category, nil
}

func (svc *Service) GetCategoryBySlug(ctx context.Context, categorySlug string) (*Category, error) {
	category, err := svc.categoryRepo.FindBySlug(ctx, categorySlug)
	if err != nil {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}

	return category, nil
}

func (svc *Service) ListCategories(ctx context.Context, params *ListCategoriesParams) ([]*Category, error) {
	categories, err := svc.categoryRepo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	return categories, nil
}

func (svc *Service) CountCategories(ctx context.Context, params *ListCategoriesParams) (uint64, error) {
	count, err := svc.categoryRepo.Count(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("failed to count categories: %w", err)
	}

	return count, nil
}

func (svc *Service) CountCategoryPosts(ctx context.Context, categoryID string) (uint64, error) {
	count, err := svc.categoryRepo.CountPosts(ctx, categoryID)
	if err != nil {
		return 0, fmt.Errorf("failed to count category posts: %w", err)
	}

	return count, nil
}

type CreateCategoryRequest struct {
	Name        string
	Slug        string
	Description string
}

func (svc *Service) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*Category, error) {
	if req.Name == "" {
		return nil, ValidationError{Field: "name", Detail: "must not be empty"}
	}

	categorySlug := req.Slug
	if categorySlug == "" {
		categorySlug = slug.Make(req.Name)
	}

	timeNow := time.Now()

	category := &Category{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Slug:        categorySlug,
		Description: req.Description,
		CreatedAt:   timeNow,
		UpdatedAt:   timeNow,
	}

	err := svc.categoryRepo.Insert(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to insert category: %w", err)
	}

	return category, nil
}

func (svc *Service) GetTagBySlug(ctx context.Context, tagSlug string) (*Tag, error) {
	tag, err := svc.tagRepo.FindBySlug(ctx, tagSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to find tag: %w", err)
	}

	return tag, nil
}

func (svc *Service) ListTags(ctx context.Context, params *ListTagsParams) ([]*Tag, error) {
	tags, err := svc.tagRepo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	return tags, nil
}

func (svc *Service) CountTags(ctx context.Context, params *ListTagsParams) (uint64, error) {
	count, err := svc.tagRepo.Count(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("failed to count tags: %w", err)
	}

	return count, nil
}

func (svc *Service) CountTagPosts(ctx context.Context, tagID string) (uint64, error) {
	count, err := svc.tagRepo.CountPosts(ctx, tagID)
	if err != nil {
		return 0, fmt.Errorf("failed to count tag posts: %w", err)
	}

	return count, nil
}

type CreateTagRequest struct {
	Name string
	Slug string
}

func (svc *Service) CreateTag(ctx context.Context, req CreateTagRequest) (*Tag, error) {
	if req.Name == "" {
		return nil, ValidationError{Field: "name", Detail: "must not be empty"}
	}

	tagSlug := req.Slug
	if tagSlug == "" {
		tagSlug = slug.Make(req.Name)
	}

	timeNow := time.Now()

	tag := &Tag{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Slug:      tagSlug,
		CreatedAt: timeNow,
		UpdatedAt: timeNow,
	}

	err := svc.tagRepo.Insert(ctx, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to insert tag: %w", err)
	}

	return tag, nil
}

func (svc *Service) resolveTags(ctx context.Context, tagSlugs []string) ([]*Tag, error) {
	if len(tagSlugs) == 0 {
		return nil, nil
	}

	tags, err := svc.tagRepo.FindBySlugs(ctx, tagSlugs)
	if err != nil {
		return nil, fmt.Errorf("failed to find tags: %w", err)
	}

	if len(tags) != len(tagSlugs) {
		known := make(map[string]struct{}, len(tags))
		for _, tag := range tags {
			known[tag.Slug] = struct{}{}
		}

		for _, tagSlug := range tagSlugs {
			if _, ok := known[tagSlug]; !ok {
				return nil, ValidationError{Field: "tags", Detail: fmt.Sprintf("unknown tag %q", tagSlug)}
			}
		}
	}

	return tags, nil
}

// ResolvePost lets the moderation workflow reference posts without
// depending on this package's full model.
func (svc *Service) ResolvePost(ctx context.Context, postID string) (*moderation.PostRef, error) {
	post, err := svc.postRepo.Find(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}

	return &moderation.PostRef{ID: post.ID, Title: post.Title, Slug: post.Slug}, nil
}

var _ moderation.PostResolver = (*Service)(nil)
