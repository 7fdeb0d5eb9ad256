package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/todiane/djangify/blog"
)

const tableTags = "tags"

type TagRepository struct {
	db *sql.DB
}

var _ blog.TagRepository = (*TagRepository)(nil)

func NewTagRepository(db *sql.DB) *TagRepository {
	return &TagRepository{db: db}
}

const (
	tagFieldID        = "id"
	tagFieldName      = "name"
	tagFieldSlug      = "slug"
	tagFieldCreatedAt = "created_at"
	tagFieldUpdatedAt = "updated_at"
)

func tagColumns() []string {
	return []string{
		tagFieldID,
		tagFieldName,
		tagFieldSlug,
		tagFieldCreatedAt,
		tagFieldUpdatedAt,
	}
}

func scanTag(row sq.RowScanner) (*blog.Tag, error) {
	var tag blog.Tag

	err := row.Scan(
		&tag.ID,
		&tag.Name,
		&tag.Slug,
		&tag.CreatedAt,
		&tag.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return &tag, nil
}

func (repo *TagRepository) Insert(ctx context.Context, tag *blog.Tag) error {
	q := sq.Insert(tableTags).
		Columns(tagColumns()...).
		Values(
			tag.ID,
			tag.Name,
			tag.Slug,
			tag.CreatedAt,
			tag.UpdatedAt,
		)

	q = q.RunWith(repo.db)

	_, err := q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec insert: %w", err)
	}

	return nil
}

func (repo *TagRepository) Find(ctx context.Context, id string) (*blog.Tag, error) {
	return repo.findBy(ctx, sq.Eq{tagFieldID: id}, id)
}

func (repo *TagRepository) FindBySlug(ctx context.Context, slug string) (*blog.Tag, error) {
	return repo.findBy(ctx, sq.Eq{tagFieldSlug: slug}, slug)
}

func (repo *TagRepository) findBy(ctx context.Context, pred sq.Eq, ref string) (*blog.Tag, error) {
	q := sq.Select(tagColumns()...).
		From(tableTags).
		Where(pred)

	q = q.RunWith(repo.db)

	tag, err := scanTag(q.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, blog.TagNotFoundError{Slug: ref}
		}

		return nil, fmt.Errorf("failed to scan tag: %w", err)
	}

	return tag, nil
}

func (repo *TagRepository) FindBySlugs(ctx context.Context, slugs []string) ([]*blog.Tag, error) {
	if len(slugs) == 0 {
		return []*blog.Tag{}, nil
	}

	q := sq.Select(tagColumns()...).
		From(tableTags).
		Where(sq.Eq{tagFieldSlug: slugs}).
		OrderBy(tagFieldSlug + " ASC")

	q = q.RunWith(repo.db)

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	defer closeRows(ctx, rows)

	tags := make([]*blog.Tag, 0, len(slugs))

	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}

		tags = append(tags, tag)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return tags, nil
}

func (repo *TagRepository) List(ctx context.Context, params *blog.ListTagsParams) ([]*blog.Tag, error) {
	q := sq.Select(tagColumns()...).
		From(tableTags).
		OrderBy(tagFieldName + " ASC")

	if params != nil && params.Search != "" {
		q = q.Where(sq.Like{"LOWER(" + tagFieldName + ")": "%" + strings.ToLower(params.Search) + "%"})
	}

	if params != nil && params.Limit > 0 {
		q = q.Limit(params.Limit).Offset(params.Offset)
	}

	q = q.RunWith(repo.db)

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	defer closeRows(ctx, rows)

	tags := make([]*blog.Tag, 0)

	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}

		tags = append(tags, tag)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return tags, nil
}

func (repo *TagRepository) Count(ctx context.Context, params *blog.ListTagsParams) (uint64, error) {
	q := sq.Select("COUNT(*)").From(tableTags)

	if params != nil && params.Search != "" {
		q = q.Where(sq.Like{"LOWER(" + tagFieldName + ")": "%" + strings.ToLower(params.Search) + "%"})
	}

	q = q.RunWith(repo.db)

	var count uint64

	err := q.QueryRowContext(ctx).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to scan count: %w", err)
	}

	return count, nil
}

func (repo *TagRepository) CountPosts(ctx context.Context, tagID string) (uint64, error) {
	q := sq.Select("COUNT(*)").
		From(tablePostTags).
		Where(sq.Eq{"tag_id": tagID})

	q = q.RunWith(repo.db)

	var count uint64

	err := q.QueryRowContext(ctx).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to scan count: %w", err)
	}

	return count, nil
}
