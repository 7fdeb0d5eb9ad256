package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/todiane/djangify/portfolio"
)

const tableProjectImages = "project_images"

type ProjectImageRepository struct {
	db *sql.DB
}

var _ portfolio.ProjectImageRepository = (*ProjectImageRepository)(nil)

func NewProjectImageRepository(db *sql.DB) *ProjectImageRepository {
	return &ProjectImageRepository{db: db}
}

const (
	projectImageFieldID           = "id"
	projectImageFieldProjectID    = "project_id"
	projectImageFieldImage        = "image"
	projectImageFieldCaption      = "caption"
	projectImageFieldDisplayOrder = "display_order"
	projectImageFieldCreatedAt    = "created_at"
	projectImageFieldUpdatedAt    = "updated_at"
)

func projectImageColumns() []string {
	return []string{
		projectImageFieldID,
		projectImageFieldProjectID,
		projectImageFieldImage,
		projectImageFieldCaption,
		projectImageFieldDisplayOrder,
		projectImageFieldCreatedAt,
		projectImageFieldUpdatedAt,
	}
}

func scanProjectImage(row sq.RowScanner) (*portfolio.ProjectImage, error) {
	var image portfolio.ProjectImage

	err := row.Scan(
		&image.ID,
		&image.ProjectID,
		&image.Image,
		&image.Caption,
		&image.Order,
		&image.CreatedAt,
		&image.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return &image, nil
}

func (repo *ProjectImageRepository) Insert(ctx context.Context, image *portfolio.ProjectImage) error {
	q := sq.Insert(tableProjectImages).
		Columns(projectImageColumns()...).
		Values(
			image.ID,
			image.ProjectID,
			image.Image,
			image.Caption,
			image.Order,
			image.CreatedAt,
			image.UpdatedAt,
		)

	q = q.RunWith(repo.db)

	_, err := q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec insert: %w", err)
	}

	return nil
}

func (repo *ProjectImageRepository) Update(ctx context.Context, image *portfolio.ProjectImage) error {
	q := sq.Update(tableProjectImages).
		Set(projectImageFieldCaption, image.Caption).
		Set(projectImageFieldDisplayOrder, image.Order).
		Set(projectImageFieldUpdatedAt, image.UpdatedAt).
		Where(sq.Eq{projectImageFieldID: image.ID})

	q = q.RunWith(repo.db)

	_, err := q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec update: %w", err)
	}

	return nil
}

func (repo *ProjectImageRepository) Delete(ctx context.Context, id string) error {
	q := sq.Delete(tableProjectImages).Where(sq.Eq{projectImageFieldID: id})

	q = q.RunWith(repo.db)

	_, err := q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec delete: %w", err)
	}

	return nil
}

func (repo *ProjectImageRepository) Find(ctx context.Context, id string) (*portfolio.ProjectImage, error) {
	q := sq.Select(projectImageColumns()...).
		From(tableProjectImages).
		Where(sq.Eq{projectImageFieldID: id})

	q = q.RunWith(repo.db)

	image, err := scanProjectImage(q.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, portfolio.ProjectImageNotFoundError{ID: id}
		}

		return nil, fmt.Errorf("failed to scan project image: %w", err)
	}

	return image, nil
}

func (repo *ProjectImageRepository) List(ctx context.Context, params *portfolio.ListProjectImagesParams) ([]*portfolio.ProjectImage, error) {
	q := sq.Select(projectImageColumns()...).
		From(tableProjectImages).
		OrderBy(projectImageFieldDisplayOrder + " ASC")

	if params != nil && params.ProjectID != "" {
		q = q.Where(sq.Eq{projectImageFieldProjectID: params.ProjectID})
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

	images := make([]*portfolio.ProjectImage, 0)

	for rows.Next() {
		image, err := scanProjectImage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project image: %w", err)
		}

		images = append(images, image)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return images, nil
}

func (repo *ProjectImageRepository) Count(ctx context.Context, params *portfolio.ListProjectImagesParams) (uint64, error) {
	q := sq.Select("COUNT(*)").From(tableProjectImages)

	if params != nil && params.ProjectID != "" {
		q = q.Where(sq.Eq{projectImageFieldProjectID: params.ProjectID})
	}

	q = q.RunWith(repo.db)

	var count uint64

	err := q.QueryRowContext(ctx).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to scan count: %w", err)
	}

	return count, nil
}
