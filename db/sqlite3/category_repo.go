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

const tableCategories = "categories"

type CategoryRepository struct {
	db *sql.DB
}

var _ blog.CategoryRepository = (*CategoryRepository)(nil)

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

const (
	categoryFieldID          = "id"
	categoryFieldName        = "name"
	categoryFieldSlug        = "slug"
	categoryFieldDescription = "description"
	categoryFieldCreatedAt   = "created_at"
	categoryFieldUpdatedAt   = "updated_at"
)

func categoryColumns() []string {
	return []string{
		categoryFieldID,
		categoryFieldName,
		categoryFieldSlug,
		categoryFieldDescription,
		categoryFieldCreatedAt,
		categoryFieldUpdatedAt,
	}
}

func scanCategory(row sq.RowScanner) (*blog.Category, error) {
	var category blog.Category

	err := row.Scan(
		&category.ID,
		&category.Name,
		&category.Slug,
		&category.Description,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return &category, nil
}

func (repo *CategoryRepository) Insert(ctx context.Context, category *blog.Category) error {
	q := sq.Insert(tableCategories).
		Columns(categoryColumns()...).
		Values(
			category.ID,
			category.Name,
			category.Slug,
			category.Description,
			category.CreatedAt,
			category.UpdatedAt,
		)

	q = q.RunWith(repo.db)

	_, err := q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec insert: %w", err)
	}

	return nil
}

func (repo *CategoryRepository) Find(ctx context.Context, id string) (*blog.Category, error) {
	return repo.findBy(ctx, sq.Eq{categoryFieldID: id}, id)
}

func (repo *CategoryRepository) FindBySlug(ctx context.Context, slug string) (*blog.Category, error) {
	return repo.findBy(ctx, sq.Eq{categoryFieldSlug: slug}, slug)
}

func (repo *CategoryRepository) findBy(ctx context.Context, pred sq.Eq, ref string) (*blog.Category, error) {
	q := sq.Select(categoryColumns()...).
		From(tableCategories).
		Where(pred)

	q = q.RunWith(repo.db)

	category, err := scanCategory(q.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, blog.CategoryNotFoundError{Slug: ref}
		}

		return nil, fmt.Errorf("failed to scan category: %w", err)
	}

	return category, nil
}

func applyCategoryFilters(q sq.SelectBuilder, params *blog.ListCategoriesParams) sq.SelectBuilder {
	if params == nil {
		return q
	}

	if params.Search != "" {
		pattern := "%" + strings.ToLower(params.Search) + "%"
		q = q.Where(sq.Or{
			sq.Like{"LOWER(" + categoryFieldName + ")": pattern},
			sq.Like{"LOWER(" + categoryFieldDescription + ")": pattern},
		})
	}

	return q
}

func (repo *CategoryRepository) List(ctx context.Context, params *blog.ListCategoriesParams) ([]*blog.Category, error) {
	q := sq.Select(categoryColumns()...).
		From(tableCategories).
		OrderBy(categoryFieldName + " ASC")

	q = applyCategoryFilters(q, params)

	if params != nil && params.Limit > 0 {
		q = q.Limit(params.Limit).Offset(params.Offset)
	}

	q = q.RunWith(repo.db)

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	defer closeRows(ctx, rows)

	categories := make([]*blog.Category, 0)

	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}

		categories = append(categories, category)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return categories, nil
}

func (repo *CategoryRepository) Count(ctx context.Context, params *blog.ListCategoriesParams) (uint64, error) {
	q := sq.Select("COUNT(*)").From(tableCategories)
	q = applyCategoryFilters(q, params)

	q = q.RunWith(repo.db)

	var count uint64

	err := q.QueryRowContext(ctx).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to scan count: %w", err)
	}

	return count, nil
}

func (repo *CategoryRepository) CountPosts(ctx context.Context, categoryID string) (uint64, error) {
	q := sq.Select("COUNT(*)").
		From(tablePosts).
		Where(sq.Eq{postFieldCategoryID: categoryID})

	q = q.RunWith(repo.db)

	var count uint64

	err := q.QueryRowContext(ctx).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to scan count: %w", err)
	}

	return count, nil
}
