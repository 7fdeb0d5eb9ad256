package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/todiane/djangify/blog"
)

const (
	tablePosts    = "posts"
	tablePostTags = "post_tags"
)

type PostRepository struct {
	db *sql.DB
}

var _ blog.PostRepository = (*PostRepository)(nil)

func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

const (
	postFieldID              = "id"
	postFieldTitle           = "title"
	postFieldSlug            = "slug"
	postFieldContent         = "content"
	postFieldExcerpt         = "excerpt"
	postFieldFeaturedImage   = "featured_image"
	postFieldCategoryID      = "category_id"
	postFieldStatus          = "status"
	postFieldPublishedAt     = "published_at"
	postFieldIsFeatured      = "is_featured"
	postFieldMetaTitle       = "meta_title"
	postFieldMetaDescription = "meta_description"
	postFieldMetaKeywords    = "meta_keywords"
	postFieldCreatedAt       = "created_at"
	postFieldUpdatedAt       = "updated_at"
)

func postColumns() []string {
	return []string{
		postFieldID,
		postFieldTitle,
		postFieldSlug,
		postFieldContent,
		postFieldExcerpt,
		postFieldFeaturedImage,
		postFieldCategoryID,
		postFieldStatus,
		postFieldPublishedAt,
		postFieldIsFeatured,
		postFieldMetaTitle,
		postFieldMetaDescription,
		postFieldMetaKeywords,
		postFieldCreatedAt,
		postFieldUpdatedAt,
	}
}

func scanPost(row sq.RowScanner) (*blog.Post, error) {
	var post blog.Post

	err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Slug,
		&post.Content,
		&post.Excerpt,
		&post.FeaturedImage,
		&post.CategoryID,
		&post.Status,
		&post.PublishedAt,
		&post.IsFeatured,
		&post.SEO.MetaTitle,
		&post.SEO.MetaDescription,
		&post.SEO.MetaKeywords,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return &post, nil
}

func (repo *PostRepository) Insert(ctx context.Context, post *blog.Post) error {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer rollbackOnError(ctx, tx, &err)

	q := sq.Insert(tablePosts).
		Columns(postColumns()...).
		Values(
			post.ID,
			post.Title,
			post.Slug,
			post.Content,
			post.Excerpt,
			post.FeaturedImage,
			post.CategoryID,
			post.Status,
			post.PublishedAt,
			post.IsFeatured,
			post.SEO.MetaTitle,
			post.SEO.MetaDescription,
			post.SEO.MetaKeywords,
			post.CreatedAt,
			post.UpdatedAt,
		)

	_, err = q.RunWith(tx).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec insert: %w", err)
	}

	err = repo.replaceTags(ctx, tx, post.ID, post.Tags)
	if err != nil {
		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (repo *PostRepository) Update(ctx context.Context, post *blog.Post) error {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer rollbackOnError(ctx, tx, &err)

	q := sq.Update(tablePosts).
		Set(postFieldTitle, post.Title).
		Set(postFieldContent, post.Content).
		Set(postFieldExcerpt, post.Excerpt).
		Set(postFieldFeaturedImage, post.FeaturedImage).
		Set(postFieldCategoryID, post.CategoryID).
		Set(postFieldStatus, post.Status).
		Set(postFieldPublishedAt, post.PublishedAt).
		Set(postFieldIsFeatured, post.IsFeatured).
		Set(postFieldMetaTitle, post.SEO.MetaTitle).
		Set(postFieldMetaDescription, post.SEO.MetaDescription).
		Set(postFieldMetaKeywords, post.SEO.MetaKeywords).
		Set(postFieldUpdatedAt, post.UpdatedAt).
		Where(sq.Eq{postFieldID: post.ID})

	_, err = q.RunWith(tx).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec update: %w", err)
	}

	err = repo.replaceTags(ctx, tx, post.ID, post.Tags)
	if err != nil {
		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (repo *PostRepository) replaceTags(ctx context.Context, tx *sql.Tx, postID string, tags []*blog.Tag) error {
	q := sq.Delete(tablePostTags).Where(sq.Eq{"post_id": postID})

	_, err := q.RunWith(tx).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear post tags: %w", err)
	}

	if len(tags) == 0 {
		return nil
	}

	insert := sq.Insert(tablePostTags).Columns("post_id", "tag_id")
	for _, tag := range tags {
		insert = insert.Values(postID, tag.ID)
	}

	_, err = insert.RunWith(tx).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert post tags: %w", err)
	}

	return nil
}

func (repo *PostRepository) Delete(ctx context.Context, id string) error {
	q := sq.Delete(tablePosts).Where(sq.Eq{postFieldID: id})

	q = q.RunWith(repo.db)

	_, err := q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec delete: %w", err)
	}

	return nil
}

func (repo *PostRepository) Find(ctx context.Context, id string) (*blog.Post, error) {
	return repo.findBy(ctx, sq.Eq{postFieldID: id}, id)
}

func (repo *PostRepository) FindBySlug(ctx context.Context, slug string) (*blog.Post, error) {
	return repo.findBy(ctx, sq.Eq{postFieldSlug: slug}, slug)
}

func (repo *PostRepository) findBy(ctx context.Context, pred sq.Eq, ref string) (*blog.Post, error) {
	q := sq.Select(postColumns()...).
		From(tablePosts).
		Where(pred)

	q = q.RunWith(repo.db)

	post, err := scanPost(q.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, blog.PostNotFoundError{Slug: ref}
		}

		return nil, fmt.Errorf("failed to scan post: %w", err)
	}

	err = repo.attachTags(ctx, []*blog.Post{post})
	if err != nil {
		return nil, err
	}

	return post, nil
}

func (repo *PostRepository) List(ctx context.Context, params *blog.ListPostsParams) ([]*blog.Post, error) {
	q := sq.Select(postColumns()...).From(tablePosts)

	q, err := applyPostFilters(q, params)
	if err != nil {
		return nil, err
	}

	q = q.OrderBy(postOrderClause(params.OrderBy))

	if params.Limit > 0 {
		q = q.Limit(params.Limit).Offset(params.Offset)
	}

	q = q.RunWith(repo.db)

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	defer closeRows(ctx, rows)

	posts := make([]*blog.Post, 0)

	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}

		posts = append(posts, post)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	err = repo.attachTags(ctx, posts)
	if err != nil {
		return nil, err
	}

	return posts, nil
}

func (repo *PostRepository) Count(ctx context.Context, params *blog.ListPostsParams) (uint64, error) {
	q := sq.Select("COUNT(*)").From(tablePosts)

	q, err := applyPostFilters(q, params)
	if err != nil {
		return 0, err
	}

	q = q.RunWith(repo.db)

	var count uint64

	err = q.QueryRowContext(ctx).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to scan count: %w", err)
	}

	return count, nil
}

// applyPostFilters translates the declarative predicate set into WHERE
// clauses. Tag membership goes through an IN subquery so a post matching
// several requested tags still yields a single row.
func applyPostFilters(q sq.SelectBuilder, params *blog.ListPostsParams) (sq.SelectBuilder, error) {
	if params == nil {
		return q, nil
	}

	if params.Search != "" {
		pattern := "%" + strings.ToLower(params.Search) + "%"
		q = q.Where(sq.Or{
			sq.Like{"LOWER(" + postFieldTitle + ")": pattern},
			sq.Like{"LOWER(" + postFieldContent + ")": pattern},
			sq.Like{"LOWER(" + postFieldExcerpt + ")": pattern},
		})
	}

	if params.CategorySlug != "" {
		sub := sq.Select("id").From(tableCategories).Where(sq.Eq{categoryFieldSlug: params.CategorySlug})

		subSQL, subArgs, err := sub.ToSql()
		if err != nil {
			return q, fmt.Errorf("failed to build category subquery: %w", err)
		}

		q = q.Where(sq.Expr(postFieldCategoryID+" IN ("+subSQL+")", subArgs...))
	}

	if len(params.TagSlugs) > 0 {
		sub := sq.Select("post_tags.post_id").
			From(tablePostTags).
			Join(tableTags + " ON tags.id = post_tags.tag_id").
			Where(sq.Eq{"tags.slug": params.TagSlugs})

		subSQL, subArgs, err := sub.ToSql()
		if err != nil {
			return q, fmt.Errorf("failed to build tag subquery: %w", err)
		}

		q = q.Where(sq.Expr(postFieldID+" IN ("+subSQL+")", subArgs...))
	}

	if params.Status != "" {
		q = q.Where(sq.Eq{postFieldStatus: params.Status})
	}

	if params.IsFeatured != nil {
		q = q.Where(sq.Eq{postFieldIsFeatured: *params.IsFeatured})
	}

	if params.CreatedAfter != nil {
		q = q.Where(sq.GtOrEq{postFieldCreatedAt: *params.CreatedAfter})
	}

	if params.CreatedBefore != nil {
		q = q.Where(sq.LtOrEq{postFieldCreatedAt: *params.CreatedBefore})
	}

	if params.PublishedAfter != nil {
		q = q.Where(sq.GtOrEq{postFieldPublishedAt: *params.PublishedAfter})
	}

	if params.PublishedBefore != nil {
		q = q.Where(sq.LtOrEq{postFieldPublishedAt: *params.PublishedBefore})
	}

	return q, nil
}

// postOrderClause maps a client ordering key (optionally "-" prefixed for
// descending) onto a whitelisted column.
func postOrderClause(orderBy string) string {
	direction := "ASC"

	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		orderBy = orderBy[1:]
	}

	switch orderBy {
	case "created_at", "published_at", "title":
		return orderBy + " " + direction
	default:
		return postFieldPublishedAt + " DESC, " + postFieldCreatedAt + " DESC"
	}
}

func (repo *PostRepository) attachTags(ctx context.Context, posts []*blog.Post) error {
	if len(posts) == 0 {
		return nil
	}

	postIDs := make([]string, 0, len(posts))
	for _, post := range posts {
		postIDs = append(postIDs, post.ID)
	}

	q := sq.Select(
		"post_tags.post_id",
		"tags.id",
		"tags.name",
		"tags.slug",
		"tags.created_at",
		"tags.updated_at",
	).
		From(tablePostTags).
		Join(tableTags + " ON tags.id = post_tags.tag_id").
		Where(sq.Eq{"post_tags.post_id": postIDs}).
		OrderBy("tags.slug ASC")

	q = q.RunWith(repo.db)

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to query post tags: %w", err)
	}

	defer closeRows(ctx, rows)

	tagsByPost := make(map[string][]*blog.Tag, len(posts))

	for rows.Next() {
		var (
			postID string
			tag    blog.Tag
		)

		err = rows.Scan(&postID, &tag.ID, &tag.Name, &tag.Slug, &tag.CreatedAt, &tag.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to scan post tag: %w", err)
		}

		tagsByPost[postID] = append(tagsByPost[postID], &tag)
	}

	err = rows.Err()
	if err != nil {
		return fmt.Errorf("failed to iterate rows: %w", err)
	}

	for _, post := range posts {
		post.Tags = tagsByPost[post.ID]
	}

	return nil
}

func closeRows(ctx context.Context, rows *sql.Rows) {
	err := rows.Close()
	if err != nil {
		slog.ErrorContext(ctx, "failed to close rows", "error", err)
	}
}

func rollbackOnError(ctx context.Context, tx *sql.Tx, err *error) {
	if *err == nil {
		return
	}

	rbErr := tx.Rollback()
	if rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
		slog.ErrorContext(ctx, "failed to rollback transaction", "error", rbErr)
	}
}
