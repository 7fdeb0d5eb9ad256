package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/todiane/djangify/blog"
	"github.com/todiane/djangify/moderation"
)

const wordsPerMinute = 200

type postResponse struct {
	ID                     string            `json:"id"`
	Title                  string            `json:"title"`
	Slug                   string            `json:"slug"`
	Content                string            `json:"content"`
	ContentHTML            string            `json:"content_html"`
	Excerpt                string            `json:"excerpt"`
	FeaturedImage          string            `json:"featured_image"`
	Category               string            `json:"category"`
	CategoryName           string            `json:"category_name"`
	Tags                   []tagResponse     `json:"tags"`
	Status                 string            `json:"status"`
	PublishedAt            *time.Time        `json:"published_at"`
	PublishedDateFormatted string            `json:"published_date_formatted"`
	IsFeatured             bool              `json:"is_featured"`
	WordCount              int               `json:"word_count"`
	ReadingTime            int               `json:"reading_time"`
	CommentCount           uint64            `json:"comment_count"`
	MetaTitle              string            `json:"meta_title"`
	MetaDescription        string            `json:"meta_description"`
	MetaKeywords           string            `json:"meta_keywords"`
	CreatedAt              time.Time         `json:"created_at"`
	UpdatedAt              time.Time         `json:"updated_at"`
	Comments               []commentResponse `json:"comments,omitempty"`
}

func (h *Handler) buildPostResponse(ctx context.Context, post *blog.Post) (*postResponse, error) {
	category, err := h.blogSvc.GetCategory(ctx, post.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get post category: %w", err)
	}

	commentCount, err := h.moderationSvc.CountApproved(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count post comments: %w", err)
	}

	var htmlBuf bytes.Buffer

	err = h.markdown.Convert([]byte(post.Content), &htmlBuf)
	if err != nil {
		return nil, fmt.Errorf("failed to render post content: %w", err)
	}

	wordCount := len(strings.Fields(post.Content))

	readingTime := (wordCount + wordsPerMinute - 1) / wordsPerMinute
	if readingTime == 0 {
		readingTime = 1
	}

	publishedDateFormatted := ""
	if post.PublishedAt != nil {
		publishedDateFormatted = post.PublishedAt.Format("January 2, 2006")
	}

	tags := make([]tagResponse, 0, len(post.Tags))
	for _, tag := range post.Tags {
		tags = append(tags, tagResponse{
			ID:        tag.ID,
			Name:      tag.Name,
			Slug:      tag.Slug,
			CreatedAt: tag.CreatedAt,
			UpdatedAt: tag.UpdatedAt,
		})
	}

	return &postResponse{
		ID:                     post.ID,
		Title:                  post.Title,
		Slug:                   post.Slug,
		Content:                post.Content,
		ContentHTML:            htmlBuf.String(),
		Excerpt:                post.Excerpt,
		FeaturedImage:          post.FeaturedImage,
		Category:               category.Slug,
		CategoryName:           category.Name,
		Tags:                   tags,
		Status:                 string(post.Status),
		PublishedAt:            post.PublishedAt,
		PublishedDateFormatted: publishedDateFormatted,
		IsFeatured:             post.IsFeatured,
		WordCount:              wordCount,
		ReadingTime:            readingTime,
		CommentCount:           commentCount,
		MetaTitle:              post.SEO.MetaTitle,
		MetaDescription:        post.SEO.MetaDescription,
		MetaKeywords:           post.SEO.MetaKeywords,
		CreatedAt:              post.CreatedAt,
		UpdatedAt:              post.UpdatedAt,
		Comments:               nil,
	}, nil
}

func (h *Handler) buildPostResponses(ctx context.Context, posts []*blog.Post) ([]*postResponse, error) {
	responses := make([]*postResponse, 0, len(posts))

	for _, post := range posts {
		response, err := h.buildPostResponse(ctx, post)
		if err != nil {
			return nil, err
		}

		responses = append(responses, response)
	}

	return responses, nil
}

func (h *Handler) parseListPostsParams(r *http.Request, staff bool) (*blog.ListPostsParams, error) {
	q := r.URL.Query()

	params := &blog.ListPostsParams{
		Search:       q.Get("search"),
		CategorySlug: q.Get("category"),
		TagSlugs:     splitCSV(q.Get("tags")),
		Status:       blog.PostStatusPublished,
		OrderBy:      q.Get("ordering"),
	}

	// Drafts are a staff-only view.
	if staff {
		params.Status = blog.PostStatus(q.Get("status"))
		if params.Status != "" && !params.Status.Valid() {
			return nil, blog.ValidationError{Field: "status", Detail: "must be draft or published"}
		}
	}

	isFeatured, err := parseBoolParam(q, "is_featured")
	if err != nil {
		return nil, err
	}

	params.IsFeatured = isFeatured

	params.CreatedAfter, err = parseTimeParam(q, "created_after", false)
	if err != nil {
		return nil, err
	}

	params.CreatedBefore, err = parseTimeParam(q, "created_before", true)
	if err != nil {
		return nil, err
	}

	params.PublishedAfter, err = parseTimeParam(q, "published_after", false)
	if err != nil {
		return nil, err
	}

	params.PublishedBefore, err = parseTimeParam(q, "published_before", true)
	if err != nil {
		return nil, err
	}

	return params, nil
}

func (h *Handler) HandleListPosts() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params, err := h.parseListPostsParams(r, isStaff(r))
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		page, pageSize := parsePageParams(r)
		params.Limit = pageSize
		params.Offset = pageOffset(page, pageSize)

		posts, err := h.blogSvc.ListPosts(r.Context(), params)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		count, err := h.blogSvc.CountPosts(r.Context(), params)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		results, err := h.buildPostResponses(r.Context(), posts)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		writeJSON(w, http.StatusOK, buildPage(r.URL, count, page, pageSize, results))
	})
}

func (h *Handler) HandleGetPost() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.serveCached(w, r) {
			return
		}

		slug := r.PathValue("slug")

		post, err := h.blogSvc.GetPostBySlug(r.Context(), slug)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		if post.Status != blog.PostStatusPublished && !isStaff(r) {
			h.respondError(w, r, blog.PostNotFoundError{Slug: slug})

			return
		}

		response, err := h.buildPostResponse(r.Context(), post)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		comments, err := h.moderationSvc.ListComments(r.Context(), &moderation.ListCommentsParams{
			PostID: post.ID,
			Status: moderation.StatusApproved,
		})
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		response.Comments = newCommentResponses(comments, isStaff(r))

		h.respondDetail(w, r, response)
	})
}

type createPostRequest struct {
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	Content         string     `json:"content"`
	Excerpt         string     `json:"excerpt"`
	Category        string     `json:"category"`
	Tags            []string   `json:"tags"`
	Status          string     `json:"status"`
	PublishedAt     *time.Time `json:"published_at"`
	IsFeatured      bool       `json:"is_featured"`
	FeaturedImage   string     `json:"featured_image"`
	MetaTitle       string     `json:"meta_title"`
	MetaDescription string     `json:"meta_description"`
	MetaKeywords    string     `json:"meta_keywords"`
}

func (h *Handler) HandleCreatePost() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req createPostRequest

		err := decodeJSON(r, &req)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		post, err := h.blogSvc.CreatePost(r.Context(), blog.CreatePostRequest{
			Title:         req.Title,
			Slug:          req.Slug,
			Content:       req.Content,
			Excerpt:       req.Excerpt,
			CategorySlug:  req.Category,
			TagSlugs:      req.Tags,
			Status:        blog.PostStatus(req.Status),
			PublishedAt:   req.PublishedAt,
			IsFeatured:    req.IsFeatured,
			FeaturedImage: req.FeaturedImage,
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

		response, err := h.buildPostResponse(r.Context(), post)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		respondSuccess(w, http.StatusCreated, response, "post created")
	})
}

type updatePostRequest struct {
	Title           *string    `json:"title"`
	Content         *string    `json:"content"`
	Excerpt         *string    `json:"excerpt"`
	Category        *string    `json:"category"`
	Tags            []string   `json:"tags"`
	Status          *string    `json:"status"`
	PublishedAt     *time.Time `json:"published_at"`
	IsFeatured      *bool      `json:"is_featured"`
	MetaTitle       *string    `json:"meta_title"`
	MetaDescription *string    `json:"meta_description"`
	MetaKeywords    *string    `json:"meta_keywords"`
}

func (h *Handler) HandleUpdatePost() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")

		var req updatePostRequest

		err := decodeJSON(r, &req)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		updateReq := blog.UpdatePostRequest{
			Title:        req.Title,
			Content:      req.Content,
			Excerpt:      req.Excerpt,
			CategorySlug: req.Category,
			TagSlugs:     req.Tags,
			PublishedAt:  req.PublishedAt,
			IsFeatured:   req.IsFeatured,
		}

		if req.Status != nil {
			status := blog.PostStatus(*req.Status)
			updateReq.Status = &status
		}

		if req.MetaTitle != nil || req.MetaDescription != nil || req.MetaKeywords != nil {
			post, err := h.blogSvc.GetPostBySlug(r.Context(), slug)
			if err != nil {
				h.respondError(w, r, err)

				return
			}

			seo := post.SEO

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

		post, err := h.blogSvc.UpdatePost(r.Context(), slug, updateReq)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		h.invalidatePost(slug)

		response, err := h.buildPostResponse(r.Context(), post)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		respondSuccess(w, http.StatusOK, response, "post updated")
	})
}

func (h *Handler) HandleDeletePost() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")

		err := h.blogSvc.DeletePost(r.Context(), slug)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		h.invalidatePost(slug)

		respondSuccess(w, http.StatusOK, nil, "post deleted")
	})
}

func (h *Handler) HandleTogglePostFeatured() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")

		post, err := h.blogSvc.ToggleFeatured(r.Context(), slug)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		h.invalidatePost(slug)

		respondSuccess(w, http.StatusOK, map[string]any{
			"slug":        post.Slug,
			"is_featured": post.IsFeatured,
		}, "featured flag toggled")
	})
}

func (h *Handler) HandleUploadPostFeaturedImage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")

		path, err := h.saveUpload(r, "featured_image")
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		post, err := h.blogSvc.SetFeaturedImage(r.Context(), slug, path)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		h.invalidatePost(slug)

		respondSuccess(w, http.StatusOK, map[string]any{
			"slug":           post.Slug,
			"featured_image": post.FeaturedImage,
		}, "featured image uploaded")
	})
}
