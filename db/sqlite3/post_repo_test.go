package sqlite3_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/todiane/djangify/blog"
	"github.com/todiane/djangify/db/sqlite3"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()

	db, err := sqlite3.NewDB(ctx, "file:"+filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	require.NoError(t, sqlite3.MigrateUp(ctx, db))

	return db
}

func insertTag(t *testing.T, repo *sqlite3.TagRepository, name, slug string) *blog.Tag {
	t.Helper()

	now := time.Now()
	tag := &blog.Tag{ID: uuid.NewString(), Name: name, Slug: slug, CreatedAt: now, UpdatedAt: now}

	require.NoError(t, repo.Insert(context.Background(), tag))

	return tag
}

func insertPost(t *testing.T, repo *sqlite3.PostRepository, categoryID, title, slug string, tags []*blog.Tag) *blog.Post {
	t.Helper()

	now := time.Now()
	post := &blog.Post{
		ID:          uuid.NewString(),
		Title:       title,
		Slug:        slug,
		Content:     "body",
		CategoryID:  categoryID,
		Status:      blog.PostStatusPublished,
		PublishedAt: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
		Tags:        tags,
	}

	require.NoError(t, repo.Insert(context.Background(), post))

	return post
}

func TestPostRepositoryListByTags(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)

	categoryRepo := sqlite3.NewCategoryRepository(db)
	tagRepo := sqlite3.NewTagRepository(db)
	postRepo := sqlite3.NewPostRepository(db)

	now := time.Now()
	category := &blog.Category{ID: uuid.NewString(), Name: "General", Slug: "general", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, categoryRepo.Insert(ctx, category))

	python := insertTag(t, tagRepo, "Python", "python")
	django := insertTag(t, tagRepo, "Django", "django")
	golang := insertTag(t, tagRepo, "Go", "go")

	both := insertPost(t, postRepo, category.ID, "Both Tags", "both-tags", []*blog.Tag{python, django})
	pythonOnly := insertPost(t, postRepo, category.ID, "Python Only", "python-only", []*blog.Tag{python})
	insertPost(t, postRepo, category.ID, "Go Only", "go-only", []*blog.Tag{golang})

	params := &blog.ListPostsParams{TagSlugs: []string{"python", "django"}}

	posts, err := postRepo.List(ctx, params)
	require.NoError(t, err)

	// A post carrying both requested tags comes back once, not per tag.
	slugs := make([]string, 0, len(posts))
	for _, post := range posts {
		slugs = append(slugs, post.Slug)
	}

	assert.ElementsMatch(t, []string{both.Slug, pythonOnly.Slug}, slugs)

	count, err := postRepo.Count(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	// Tags ride along on list reads.
	for _, post := range posts {
		if post.Slug == both.Slug {
			require.Len(t, post.Tags, 2)
			assert.Equal(t, "django", post.Tags[0].Slug)
			assert.Equal(t, "python", post.Tags[1].Slug)
		}
	}
}

func TestPostRepositoryListByUnknownTag(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)

	categoryRepo := sqlite3.NewCategoryRepository(db)
	tagRepo := sqlite3.NewTagRepository(db)
	postRepo := sqlite3.NewPostRepository(db)

	now := time.Now()
	category := &blog.Category{ID: uuid.NewString(), Name: "General", Slug: "general", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, categoryRepo.Insert(ctx, category))

	python := insertTag(t, tagRepo, "Python", "python")
	insertPost(t, postRepo, category.ID, "Python Only", "python-only", []*blog.Tag{python})

	posts, err := postRepo.List(ctx, &blog.ListPostsParams{TagSlugs: []string{"rust"}})
	require.NoError(t, err)
	assert.Empty(t, posts)
}
