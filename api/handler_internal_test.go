package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/todiane/djangify/auth"
	"github.com/todiane/djangify/blog"
	"github.com/todiane/djangify/moderation"
	"github.com/todiane/djangify/portfolio"
	"github.com/todiane/djangify/spam"
	"golang.org/x/time/rate"
)

type memPostRepo struct {
	posts map[string]*blog.Post
}

func newMemPostRepo() *memPostRepo {
	return &memPostRepo{posts: make(map[string]*blog.Post)}
}

func (repo *memPostRepo) Insert(_ context.Context, post *blog.Post) error {
	cloned := *post
	repo.posts[post.ID] = &cloned

	return nil
}

func (repo *memPostRepo) Update(_ context.Context, post *blog.Post) error {
	cloned := *post
	repo.posts[post.ID] = &cloned

	return nil
}

func (repo *memPostRepo) Delete(_ context.Context, id string) error {
	delete(repo.posts, id)

	return nil
}

func (repo *memPostRepo) Find(_ context.Context, id string) (*blog.Post, error) {
	post, ok := repo.posts[id]
	if !ok {
		return nil, blog.PostNotFoundError{Slug: id}
	}

	return post, nil
}

func (repo *memPostRepo) FindBySlug(_ context.Context, slug string) (*blog.Post, error) {
	for _, post := range repo.posts {
		if post.Slug == slug {
			return post, nil
		}
	}

	return nil, blog.PostNotFoundError{Slug: slug}
}

func (repo *memPostRepo) matches(post *blog.Post, params *blog.ListPostsParams) bool {
	if params == nil {
		return true
	}

	if params.Status != "" && post.Status != params.Status {
		return false
	}

	if params.Search != "" && !strings.Contains(strings.ToLower(post.Title), strings.ToLower(params.Search)) {
		return false
	}

	return true
}

func (repo *memPostRepo) List(_ context.Context, params *blog.ListPostsParams) ([]*blog.Post, error) {
	posts := make([]*blog.Post, 0)

	for _, post := range repo.posts {
		if repo.matches(post, params) {
			posts = append(posts, post)
		}
	}

	return posts, nil
}

func (repo *memPostRepo) Count(_ context.Context, params *blog.ListPostsParams) (uint64, error) {
	var count uint64

	for _, post := range repo.posts {
		if repo.matches(post, params) {
			count++
		}
	}

	return count, nil
}

type memCategoryRepo struct {
	categories map[string]*blog.Category
}

func newMemCategoryRepo() *memCategoryRepo {
	return &memCategoryRepo{categories: make(map[string]*blog.Category)}
}

func (repo *memCategoryRepo) Insert(_ context.Context, category *blog.Category) error {
	repo.categories[category.ID] = category

	return nil
}

func (repo *memCategoryRepo) Find(_ context.Context, id string) (*blog.Category, error) {
	category, ok := repo.categories[id]
	if !ok {
		return nil, blog.CategoryNotFoundError{Slug: id}
	}

	return category, nil
}

func (repo *memCategoryRepo) FindBySlug(_ context.Context, slug string) (*blog.Category, error) {
	for _, category := range repo.categories {
		if category.Slug == slug {
			return category, nil
		}
	}

	return nil, blog.CategoryNotFoundError{Slug: slug}
}

func (repo *memCategoryRepo) List(_ context.Context, _ *blog.ListCategoriesParams) ([]*blog.Category, error) {
	categories := make([]*blog.Category, 0, len(repo.categories))
	for _, category := range repo.categories {
		categories = append(categories, category)
	}

	return categories, nil
}

func (repo *memCategoryRepo) Count(_ context.Context, _ *blog.ListCategoriesParams) (uint64, error) {
	return uint64(len(repo.categories)), nil
}

func (repo *memCategoryRepo) CountPosts(_ context.Context, _ string) (uint64, error) {
	return 0, nil
}

type memTagRepo struct {
	tags map[string]*blog.Tag
}

func newMemTagRepo() *memTagRepo {
	return &memTagRepo{tags: make(map[string]*blog.Tag)}
}

func (repo *memTagRepo) Insert(_ context.Context, tag *blog.Tag) error {
	repo.tags[tag.ID] = tag

	return nil
}

func (repo *memTagRepo) Find(_ context.Context, id string) (*blog.Tag, error) {
	tag, ok := repo.tags[id]
	if !ok {
		return nil, blog.TagNotFoundError{Slug: id}
	}

	return tag, nil
}

func (repo *memTagRepo) FindBySlug(_ context.Context, slug string) (*blog.Tag, error) {
	for _, tag := range repo.tags {
		if tag.Slug == slug {
			return tag, nil
		}
	}

	return nil, blog.TagNotFoundError{Slug: slug}
}

func (repo *memTagRepo) FindBySlugs(_ context.Context, slugs []string) ([]*blog.Tag, error) {
	tags := make([]*blog.Tag, 0, len(slugs))

	for _, slug := range slugs {
		for _, tag := range repo.tags {
			if tag.Slug == slug {
				tags = append(tags, tag)
			}
		}
	}

	return tags, nil
}

func (repo *memTagRepo) List(_ context.Context, _ *blog.ListTagsParams) ([]*blog.Tag, error) {
	tags := make([]*blog.Tag, 0, len(repo.tags))
	for _, tag := range repo.tags {
		tags = append(tags, tag)
	}

	return tags, nil
}

func (repo *memTagRepo) Count(_ context.Context, _ *blog.ListTagsParams) (uint64, error) {
	return uint64(len(repo.tags)), nil
}

func (repo *memTagRepo) CountPosts(_ context.Context, _ string) (uint64, error) {
	return 0, nil
}

type memCommentRepo struct {
	comments []*moderation.Comment
}

func (repo *memCommentRepo) Insert(_ context.Context, comment *moderation.Comment) error {
	cloned := *comment
	repo.comments = append(repo.comments, &cloned)

	return nil
}

func (repo *memCommentRepo) Update(_ context.Context, comment *moderation.Comment) error {
	for i, existing := range repo.comments {
		if existing.ID == comment.ID {
			cloned := *comment
			repo.comments[i] = &cloned
		}
	}

	return nil
}

func (repo *memCommentRepo) Find(_ context.Context, id string) (*moderation.Comment, error) {
	for _, comment := range repo.comments {
		if comment.ID == id {
			return comment, nil
		}
	}

	return nil, moderation.CommentNotFoundError{ID: id}
}

func (repo *memCommentRepo) matches(comment *moderation.Comment, params *moderation.ListCommentsParams) bool {
	if params == nil {
		return true
	}

	if params.PostID != "" && comment.PostID != params.PostID {
		return false
	}

	if params.Status != "" && comment.Status != params.Status {
		return false
	}

	return true
}

func (repo *memCommentRepo) List(_ context.Context, params *moderation.ListCommentsParams) ([]*moderation.Comment, error) {
	comments := make([]*moderation.Comment, 0)

	for _, comment := range repo.comments {
		if repo.matches(comment, params) {
			comments = append(comments, comment)
		}
	}

	return comments, nil
}

func (repo *memCommentRepo) Count(_ context.Context, params *moderation.ListCommentsParams) (uint64, error) {
	var count uint64

	for _, comment := range repo.comments {
		if repo.matches(comment, params) {
			count++
		}
	}

	return count, nil
}

type memUserRepo struct {
	users map[string]*auth.User
}

func (repo *memUserRepo) Insert(_ context.Context, user *auth.User) error {
	repo.users[user.ID] = user

	return nil
}

func (repo *memUserRepo) Update(_ context.Context, user *auth.User) error {
	repo.users[user.ID] = user

	return nil
}

func (repo *memUserRepo) Find(_ context.Context, userID string) (*auth.User, error) {
	user, ok := repo.users[userID]
	if !ok {
		return nil, auth.UserNotFoundError{ID: userID}
	}

	cloned := *user

	return &cloned, nil
}

func (repo *memUserRepo) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	for _, user := range repo.users {
		if user.Username == username {
			cloned := *user

			return &cloned, nil
		}
	}

	return nil, auth.UserByUsernameNotFoundError{Username: username}
}

type memSessionRepo struct {
	sessions map[string]*auth.Session
}

func (repo *memSessionRepo) Insert(_ context.Context, session *auth.Session) error {
	repo.sessions[session.ID] = session

	return nil
}

func (repo *memSessionRepo) Find(_ context.Context, id string) (*auth.Session, error) {
	session, ok := repo.sessions[id]
	if !ok {
		return nil, &auth.SessionNotFoundError{ID: id}
	}

	return session, nil
}

func (repo *memSessionRepo) Delete(_ context.Context, id string) error {
	delete(repo.sessions, id)

	return nil
}

type noopNotifier struct{}

func (n *noopNotifier) NotifyNewComment(_ context.Context, _ *moderation.Comment, _ *moderation.PostRef) error {
	return nil
}

func (n *noopNotifier) NotifyApproved(_ context.Context, _ *moderation.Comment, _ *moderation.PostRef) error {
	return nil
}

func (n *noopNotifier) NotifyRejected(_ context.Context, _ *moderation.Comment, _ *moderation.PostRef, _ string) error {
	return nil
}

type memProjectRepo struct{}

func (repo *memProjectRepo) Insert(_ context.Context, _ *portfolio.Project) error  { return nil }
func (repo *memProjectRepo) Update(_ context.Context, _ *portfolio.Project) error  { return nil }
func (repo *memProjectRepo) Delete(_ context.Context, _ string) error              { return nil }
func (repo *memProjectRepo) Find(_ context.Context, id string) (*portfolio.Project, error) {
	return nil, portfolio.ProjectNotFoundError{Slug: id}
}

func (repo *memProjectRepo) FindBySlug(_ context.Context, slug string) (*portfolio.Project, error) {
	return nil, portfolio.ProjectNotFoundError{Slug: slug}
}

func (repo *memProjectRepo) List(_ context.Context, _ *portfolio.ListProjectsParams) ([]*portfolio.Project, error) {
	return []*portfolio.Project{}, nil
}

func (repo *memProjectRepo) Count(_ context.Context, _ *portfolio.ListProjectsParams) (uint64, error) {
	return 0, nil
}

type memTechnologyRepo struct{}

func (repo *memTechnologyRepo) Insert(_ context.Context, _ *portfolio.Technology) error { return nil }

func (repo *memTechnologyRepo) Find(_ context.Context, id string) (*portfolio.Technology, error) {
	return nil, portfolio.TechnologyNotFoundError{Slug: id}
}

func (repo *memTechnologyRepo) FindBySlug(_ context.Context, slug string) (*portfolio.Technology, error) {
	return nil, portfolio.TechnologyNotFoundError{Slug: slug}
}

func (repo *memTechnologyRepo) FindBySlugs(_ context.Context, _ []string) ([]*portfolio.Technology, error) {
	return []*portfolio.Technology{}, nil
}

func (repo *memTechnologyRepo) List(_ context.Context, _ *portfolio.ListTechnologiesParams) ([]*portfolio.Technology, error) {
	return []*portfolio.Technology{}, nil
}

func (repo *memTechnologyRepo) Count(_ context.Context, _ *portfolio.ListTechnologiesParams) (uint64, error) {
	return 0, nil
}

func (repo *memTechnologyRepo) CountProjects(_ context.Context, _ string) (uint64, error) {
	return 0, nil
}

type memProjectImageRepo struct{}

func (repo *memProjectImageRepo) Insert(_ context.Context, _ *portfolio.ProjectImage) error {
	return nil
}

func (repo *memProjectImageRepo) Update(_ context.Context, _ *portfolio.ProjectImage) error {
	return nil
}

func (repo *memProjectImageRepo) Delete(_ context.Context, _ string) error { return nil }

func (repo *memProjectImageRepo) Find(_ context.Context, id string) (*portfolio.ProjectImage, error) {
	return nil, portfolio.ProjectImageNotFoundError{ID: id}
}

func (repo *memProjectImageRepo) List(_ context.Context, _ *portfolio.ListProjectImagesParams) ([]*portfolio.ProjectImage, error) {
	return []*portfolio.ProjectImage{}, nil
}

func (repo *memProjectImageRepo) Count(_ context.Context, _ *portfolio.ListProjectImagesParams) (uint64, error) {
	return 0, nil
}

type testEnv struct {
	handler  *Handler
	blogSvc  *blog.Service
	postRepo *memPostRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	postRepo := newMemPostRepo()
	categoryRepo := newMemCategoryRepo()
	tagRepo := newMemTagRepo()
	commentRepo := &memCommentRepo{}
	userRepo := &memUserRepo{users: make(map[string]*auth.User)}
	sessionRepo := &memSessionRepo{sessions: make(map[string]*auth.Session)}

	blogSvc := blog.NewService(postRepo, categoryRepo, tagRepo)
	portfolioSvc := portfolio.NewService(&memProjectRepo{}, &memTechnologyRepo{}, &memProjectImageRepo{})
	moderationSvc := moderation.NewService(commentRepo, blogSvc, spam.NewDetector(), &noopNotifier{})
	authSvc := auth.NewService(userRepo, sessionRepo)

	handler := NewHandler(
		authSvc,
		blogSvc,
		portfolioSvc,
		moderationSvc,
		sessions.NewCookieStore([]byte("test-session-key")),
		"djangify-test",
		t.TempDir(),
		time.Minute,
		rate.Limit(1000),
		1000,
		AdminConfig{SiteHeader: "Djangify", SiteTitle: "Djangify"},
	)

	return &testEnv{handler: handler, blogSvc: blogSvc, postRepo: postRepo}
}

func (env *testEnv) seedPost(t *testing.T, title string, status blog.PostStatus) *blog.Post {
	t.Helper()

	ctx := context.Background()

	_, err := env.blogSvc.CreateCategory(ctx, blog.CreateCategoryRequest{Name: "General"})
	if err != nil {
		var validationErr blog.ValidationError
		require.ErrorAs(t, err, &validationErr)
	}

	post, err := env.blogSvc.CreatePost(ctx, blog.CreatePostRequest{
		Title:        title,
		Content:      "# " + title + "\n\nSome body text for the post.",
		Excerpt:      "Short excerpt.",
		CategorySlug: "general",
		Status:       status,
	})
	require.NoError(t, err)

	return post
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (string, json.RawMessage, string) {
	t.Helper()

	var body struct {
		Status  string          `json:"status"`
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body.Status, body.Data, body.Message
}

func TestHandleGetPost(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	post := env.seedPost(t, "Hello World", blog.PostStatusPublished)

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/posts/"+post.Slug, nil))

	require.Equal(t, http.StatusOK, rec.Code)

	status, data, _ := decodeEnvelope(t, rec)
	assert.Equal(t, "success", status)

	var got struct {
		Slug                   string `json:"slug"`
		ContentHTML            string `json:"content_html"`
		CategoryName           string `json:"category_name"`
		ReadingTime            int    `json:"reading_time"`
		WordCount              int    `json:"word_count"`
		CommentCount           uint64 `json:"comment_count"`
		PublishedDateFormatted string `json:"published_date_formatted"`
	}

	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "hello-world", got.Slug)
	assert.Contains(t, got.ContentHTML, "<h1>")
	assert.Equal(t, "General", got.CategoryName)
	assert.Equal(t, 1, got.ReadingTime)
	assert.Positive(t, got.WordCount)
	assert.Zero(t, got.CommentCount)
	assert.NotEmpty(t, got.PublishedDateFormatted)
}

func TestHandleGetPostDraftHiddenFromAnonymous(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	post := env.seedPost(t, "Work In Progress", blog.PostStatusDraft)

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/posts/"+post.Slug, nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleListPostsExcludesDrafts(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedPost(t, "Published Post", blog.PostStatusPublished)

	_, err := env.blogSvc.CreatePost(context.Background(), blog.CreatePostRequest{
		Title:        "Draft Post",
		Content:      "draft body",
		CategorySlug: "general",
		Status:       blog.PostStatusDraft,
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/posts", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var page struct {
		Count       uint64          `json:"count"`
		TotalPages  uint64          `json:"total_pages"`
		CurrentPage uint64          `json:"current_page"`
		Results     json.RawMessage `json:"results"`
	}

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, uint64(1), page.Count)
	assert.Equal(t, uint64(1), page.TotalPages)
	assert.Equal(t, uint64(1), page.CurrentPage)
}

func TestHandleSubmitComment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		payload    string
		wantCode   int
		wantStatus string
	}{
		{
			name:       "clean comment is approved",
			payload:    `{"name":"Jamie","email":"jamie@example.com","content":"Great write-up, thanks!"}`,
			wantCode:   http.StatusCreated,
			wantStatus: "approved",
		},
		{
			name:       "spam comment is rejected",
			payload:    `{"name":"Spammer","email":"spam@example.com","content":"cheap viagra here"}`,
			wantCode:   http.StatusCreated,
			wantStatus: "rejected",
		},
		{
			name:     "invalid email",
			payload:  `{"name":"Jamie","email":"not-an-email","content":"hello"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing content",
			payload:  `{"name":"Jamie","email":"jamie@example.com","content":""}`,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t)
			post := env.seedPost(t, "Hello World", blog.PostStatusPublished)

			req := httptest.NewRequest("POST", "/api/v1/posts/"+post.Slug+"/comments", bytes.NewReader([]byte(tt.payload)))
			req.Header.Set("Content-Type", "application/json")

			rec := httptest.NewRecorder()
			env.handler.ServeHTTP(rec, req)

			require.Equal(t, tt.wantCode, rec.Code)

			if tt.wantStatus == "" {
				return
			}

			_, data, _ := decodeEnvelope(t, rec)

			var got struct {
				Status string `json:"status"`
				Email  string `json:"email"`
			}

			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Empty(t, got.Email)
		})
	}
}

func TestPostCommentsVisibility(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	post := env.seedPost(t, "Hello World", blog.PostStatusPublished)

	for _, payload := range []string{
		`{"name":"Jamie","email":"jamie@example.com","content":"Nice post!"}`,
		`{"name":"Spammer","email":"spam@example.com","content":"win at the casino now"}`,
	} {
		req := httptest.NewRequest("POST", "/api/v1/posts/"+post.Slug+"/comments", bytes.NewReader([]byte(payload)))
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/posts/"+post.Slug+"/comments", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var page struct {
		Count uint64 `json:"count"`
	}

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, uint64(1), page.Count)
}

func TestStaffOnlyEndpointsRejectAnonymous(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	targets := []struct {
		method string
		path   string
	}{
		{method: "POST", path: "/api/v1/posts"},
		{method: "DELETE", path: "/api/v1/posts/some-post"},
		{method: "GET", path: "/api/v1/comments"},
		{method: "POST", path: "/api/v1/comments/some-id/approve"},
		{method: "POST", path: "/api/v1/projects"},
	}

	for _, target := range targets {
		req := httptest.NewRequest(target.method, target.path, strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s", target.method, target.path)
	}
}

func TestLoginAndMe(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	err := env.handler.authSvc.EnsureAdminUser(context.Background(), "admin", "s3cret", "admin@example.com")
	require.NoError(t, err)

	loginReq := httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(`{"username":"admin","password":"s3cret"}`))
	loginReq.Header.Set("Content-Type", "application/json")

	loginRec := httptest.NewRecorder()
	env.handler.ServeHTTP(loginRec, loginReq)

	require.Equal(t, http.StatusOK, loginRec.Code)
	require.NotEmpty(t, loginRec.Result().Cookies())

	meReq := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
	for _, cookie := range loginRec.Result().Cookies() {
		meReq.AddCookie(cookie)
	}

	meRec := httptest.NewRecorder()
	env.handler.ServeHTTP(meRec, meReq)

	require.Equal(t, http.StatusOK, meRec.Code)

	_, data, _ := decodeEnvelope(t, meRec)

	var got struct {
		Username string `json:"username"`
		IsStaff  bool   `json:"is_staff"`
	}

	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "admin", got.Username)
	assert.True(t, got.IsStaff)

	badReq := httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(`{"username":"admin","password":"wrong"}`))
	badReq.Header.Set("Content-Type", "application/json")

	badRec := httptest.NewRecorder()
	env.handler.ServeHTTP(badRec, badReq)

	assert.Equal(t, http.StatusUnauthorized, badRec.Code)
}
