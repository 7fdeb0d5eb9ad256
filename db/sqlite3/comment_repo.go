package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/todiane/djangify/moderation"
)

const tableComments = "comments"

type CommentRepository struct {
	db *sql.DB
}

var _ moderation.CommentRepository = (*CommentRepository)(nil)

func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

const (
	commentFieldID        = "id"
	commentFieldPostID    = "post_id"
	commentFieldName      = "name"
	commentFieldEmail     = "email"
	commentFieldContent   = "content"
	commentFieldStatus    = "status"
	commentFieldCreatedAt = "created_at"
	commentFieldUpdatedAt = "updated_at"
)

func commentColumns() []string {
	return []string{
		commentFieldID,
		commentFieldPostID,
		commentFieldName,
		commentFieldEmail,
		commentFieldContent,
		commentFieldStatus,
		commentFieldCreatedAt,
		commentFieldUpdatedAt,
	}
}

func scanComment(row sq.RowScanner) (*moderation.Comment, error) {
	var comment moderation.Comment

	err := row.Scan(
		&comment.ID,
		&comment.PostID,
		&comment.Name,
		&comment.Email,
		&comment.Content,
		&comment.Status,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return &comment, nil
}

func (repo *CommentRepository) Insert(ctx context.Context, comment *moderation.Comment) error {
	q := sq.Insert(tableComments).
		Columns(commentColumns()...).
		Values(
			comment.ID,
			comment.PostID,
			comment.Name,
			comment.Email,
			comment.Content,
			comment.Status,
			comment.CreatedAt,
			comment.UpdatedAt,
		)

	q = q.RunWith(repo.db)

	_, err := q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec insert: %w", err)
	}

	return nil
}

func (repo *CommentRepository) Update(ctx context.Context, comment *moderation.Comment) error {
	q := sq.Update(tableComments).
		Set(commentFieldStatus, comment.Status).
		Set(commentFieldUpdatedAt, comment.UpdatedAt).
		Where(sq.Eq{commentFieldID: comment.ID})

	q = q.RunWith(repo.db)

	_, err := q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec update: %w", err)
	}

	return nil
}

func (repo *CommentRepository) Find(ctx context.Context, id string) (*moderation.Comment, error) {
	q := sq.Select(commentColumns()...).
		From(tableComments).
		Where(sq.Eq{commentFieldID: id})

	q = q.RunWith(repo.db)

	comment, err := scanComment(q.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, moderation.CommentNotFoundError{ID: id}
		}

		return nil, fmt.Errorf("failed to scan comment: %w", err)
	}

	return comment, nil
}

func applyCommentFilters(q sq.SelectBuilder, params *moderation.ListCommentsParams) sq.SelectBuilder {
	if params == nil {
		return q
	}

	if params.PostID != "" {
		q = q.Where(sq.Eq{commentFieldPostID: params.PostID})
	}

	if params.Status != "" {
		q = q.Where(sq.Eq{commentFieldStatus: params.Status})
	}

	if params.CreatedAfter != nil {
		q = q.Where(sq.GtOrEq{commentFieldCreatedAt: *params.CreatedAfter})
	}

	if params.CreatedBefore != nil {
		q = q.Where(sq.LtOrEq{commentFieldCreatedAt: *params.CreatedBefore})
	}

	return q
}

func (repo *CommentRepository) List(ctx context.Context, params *moderation.ListCommentsParams) ([]*moderation.Comment, error) {
	q := sq.Select(commentColumns()...).
		From(tableComments).
		OrderBy(commentFieldCreatedAt + " DESC")

	q = applyCommentFilters(q, params)

	if params != nil && params.Limit > 0 {
		q = q.Limit(params.Limit).Offset(params.Offset)
	}

	q = q.RunWith(repo.db)

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	defer closeRows(ctx, rows)

	comments := make([]*moderation.Comment, 0)

	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}

		comments = append(comments, comment)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return comments, nil
}

func (repo *CommentRepository) Count(ctx context.Context, params *moderation.ListCommentsParams) (uint64, error) {
	q := sq.Select("COUNT(*)").From(tableComments)
	q = applyCommentFilters(q, params)

	q = q.RunWith(repo.db)

	var count uint64

	err := q.QueryRowContext(ctx).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to scan count: %w", err)
	}

	return count, nil
}
