package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/todiane/djangify/portfolio"
)

const tableTechnologies = "technologies"

type TechnologyRepository struct {
	db *sql.DB
}

var _ portfolio.TechnologyRepository = (*TechnologyRepository)(nil)

func NewTechnologyRepository(db *sql.DB) *TechnologyRepository {
	return &TechnologyRepository{db: db}
}

const (
	technologyFieldID        = "id"
	technologyFieldName      = "name"
	technologyFieldSlug      = "slug"
	technologyFieldIcon      = "icon"
	technologyFieldCreatedAt = "created_at"
	technologyFieldUpdatedAt = "updated_at"
)

func technologyColumns() []string {
	return []string{
		technologyFieldID,
		technologyFieldName,
		technologyFieldSlug,
		technologyFieldIcon,
		technologyFieldCreatedAt,
		technologyFieldUpdatedAt,
	}
}

func scanTechnology(row sq.RowScanner) (*portfolio.Technology, error) {
	var technology portfolio.Technology

	err := row.Scan(
		&technology.ID,
		&technology.Name,
		&technology.Slug,
		&technology.Icon,
		&technology.CreatedAt,
		&technology.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return &technology, nil
}

func (repo *TechnologyRepository) Insert(ctx context.Context, technology *portfolio.Technology) error {
	q := sq.Insert(tableTechnologies).
		Columns(technologyColumns()...).
		Values(
			technology.ID,
			technology.Name,
			technology.Slug,
			technology.Icon,
			technology.CreatedAt,
			technology.UpdatedAt,
		)

	q = q.RunWith(repo.db)

	_, err := q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec insert: %w", err)
	}

	return nil
}

func (repo *TechnologyRepository) Find(ctx context.Context, id string) (*portfolio.Technology, error) {
	return repo.findBy(ctx, sq.Eq{technologyFieldID: id}, id)
}

func (repo *TechnologyRepository) FindBySlug(ctx context.Context, slug string) (*portfolio.Technology, error) {
	return repo.findBy(ctx, sq.Eq{technologyFieldSlug: slug}, slug)
}

func (repo *TechnologyRepository) findBy(ctx context.Context, pred sq.Eq, ref string) (*portfolio.Technology, error) {
	q := sq.Select(technologyColumns()...).
		From(tableTechnologies).
		Where(pred)

	q = q.RunWith(repo.db)

	technology, err := scanTechnology(q.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, portfolio.TechnologyNotFoundError{Slug: ref}
		}

		return nil, fmt.Errorf("failed to scan technology: %w", err)
	}

	return technology, nil
}

func (repo *TechnologyRepository) FindBySlugs(ctx context.Context, slugs []string) ([]*portfolio.Technology, error) {
	if len(slugs) == 0 {
		return []*portfolio.Technology{}, nil
	}

	q := sq.Select(technologyColumns()...).
		From(tableTechnologies).
		Where(sq.Eq{technologyFieldSlug: slugs}).
		OrderBy(technologyFieldSlug + " ASC")

	q = q.RunWith(repo.db)

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	defer closeRows(ctx, rows)

	technologies := make([]*portfolio.Technology, 0, len(slugs))

	for rows.Next() {
		technology, err := scanTechnology(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan technology: %w", err)
		}

		technologies = append(technologies, technology)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return technologies, nil
}

func (repo *TechnologyRepository) List(ctx context.Context, params *portfolio.ListTechnologiesParams) ([]*portfolio.Technology, error) {
	q := sq.Select(technologyColumns()...).
		From(tableTechnologies).
		OrderBy(technologyFieldName + " ASC")

	if params != nil && params.Search != "" {
		q = q.Where(sq.Like{"LOWER(" + technologyFieldName + ")": "%" + strings.ToLower(params.Search) + "%"})
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

	technologies := make([]*portfolio.Technology, 0)

	for rows.Next() {
		technology, err := scanTechnology(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan technology: %w", err)
		}

		technologies = append(technologies, technology)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return technologies, nil
}

func (repo *TechnologyRepository) Count(ctx context.Context, params *portfolio.ListTechnologiesParams) (uint64, error) {
	q := sq.Select("COUNT(*)").From(tableTechnologies)

	if params != nil && params.Search != "" {
		q = q.Where(sq.Like{"LOWER(" + technologyFieldName + ")": "%" + strings.ToLower(params.Search) + "%"})
	}

	q = q.RunWith(repo.db)

	var count uint64

	err := q.QueryRowContext(ctx).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to scan count: %w", err)
	}

	return count, nil
}

func (repo *TechnologyRepository) CountProjects(ctx context.Context, technologyID string) (uint64, error) {
	q := sq.Select("COUNT(*)").
		From(tableProjectTechnologies).
		Where(sq.Eq{"technology_id": technologyID})

	q = q.RunWith(repo.db)

	var count uint64

	err := q.QueryRowContext(ctx).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to scan count: %w", err)
	}

	return count, nil
}
