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

const (
	tableProjects            = "projects"
	tableProjectTechnologies = "project_technologies"
)

type ProjectRepository struct {
	db        *sql.DB
	imageRepo *ProjectImageRepository
}

var _ portfolio.ProjectRepository = (*ProjectRepository)(nil)

func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db, imageRepo: NewProjectImageRepository(db)}
}

const (
	projectFieldID               = "id"
	projectFieldTitle            = "title"
	projectFieldSlug             = "slug"
	projectFieldDescription      = "description"
	projectFieldShortDescription = "short_description"
	projectFieldFeaturedImage    = "featured_image"
	projectFieldProjectURL       = "project_url"
	projectFieldGithubURL        = "github_url"
	projectFieldIsFeatured       = "is_featured"
	projectFieldDisplayOrder     = "display_order"
	projectFieldMetaTitle        = "meta_title"
	projectFieldMetaDescription  = "meta_description"
	projectFieldMetaKeywords     = "meta_keywords"
	projectFieldCreatedAt        = "created_at"
	projectFieldUpdatedAt        = "updated_at"
)

func projectColumns() []string {
	return []string{
		projectFieldID,
		projectFieldTitle,
		projectFieldSlug,
		projectFieldDescription,
		projectFieldShortDescription,
		projectFieldFeaturedImage,
		projectFieldProjectURL,
		projectFieldGithubURL,
		projectFieldIsFeatured,
		projectFieldDisplayOrder,
		projectFieldMetaTitle,
		projectFieldMetaDescription,
		projectFieldMetaKeywords,
		projectFieldCreatedAt,
		projectFieldUpdatedAt,
	}
}

func scanProject(row sq.RowScanner) (*portfolio.Project, error) {
	var project portfolio.Project

	err := row.Scan(
		&project.ID,
		&project.Title,
		&project.Slug,
		&project.Description,
		&project.ShortDescription,
		&project.FeaturedImage,
		&project.ProjectURL,
		&project.GithubURL,
		&project.IsFeatured,
		&project.Order,
		&project.SEO.MetaTitle,
		&project.SEO.MetaDescription,
		&project.SEO.MetaKeywords,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return &project, nil
}

func (repo *ProjectRepository) Insert(ctx context.Context, project *portfolio.Project) error {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer rollbackOnError(ctx, tx, &err)

	q := sq.Insert(tableProjects).
		Columns(projectColumns()...).
		Values(
			project.ID,
			project.Title,
			project.Slug,
			project.Description,
			project.ShortDescription,
			project.FeaturedImage,
			project.ProjectURL,
			project.GithubURL,
			project.IsFeatured,
			project.Order,
			project.SEO.MetaTitle,
			project.SEO.MetaDescription,
			project.SEO.MetaKeywords,
			project.CreatedAt,
			project.UpdatedAt,
		)

	_, err = q.RunWith(tx).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec insert: %w", err)
	}

	err = repo.replaceTechnologies(ctx, tx, project.ID, project.Technologies)
	if err != nil {
		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (repo *ProjectRepository) Update(ctx context.Context, project *portfolio.Project) error {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer rollbackOnError(ctx, tx, &err)

	q := sq.Update(tableProjects).
		Set(projectFieldTitle, project.Title).
		Set(projectFieldDescription, project.Description).
		Set(projectFieldShortDescription, project.ShortDescription).
		Set(projectFieldFeaturedImage, project.FeaturedImage).
		Set(projectFieldProjectURL, project.ProjectURL).
		Set(projectFieldGithubURL, project.GithubURL).
		Set(projectFieldIsFeatured, project.IsFeatured).
		Set(projectFieldDisplayOrder, project.Order).
		Set(projectFieldMetaTitle, project.SEO.MetaTitle).
		Set(projectFieldMetaDescription, project.SEO.MetaDescription).
		Set(projectFieldMetaKeywords, project.SEO.MetaKeywords).
		Set(projectFieldUpdatedAt, project.UpdatedAt).
		Where(sq.Eq{projectFieldID: project.ID})

	_, err = q.RunWith(tx).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec update: %w", err)
	}

	err = repo.replaceTechnologies(ctx, tx, project.ID, project.Technologies)
	if err != nil {
		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (repo *ProjectRepository) replaceTechnologies(ctx context.Context, tx *sql.Tx, projectID string, technologies []*portfolio.Technology) error {
	q := sq.Delete(tableProjectTechnologies).Where(sq.Eq{"project_id": projectID})

	_, err := q.RunWith(tx).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear project technologies: %w", err)
	}

	if len(technologies) == 0 {
		return nil
	}

	insert := sq.Insert(tableProjectTechnologies).Columns("project_id", "technology_id")
	for _, technology := range technologies {
		insert = insert.Values(projectID, technology.ID)
	}

	_, err = insert.RunWith(tx).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert project technologies: %w", err)
	}

	return nil
}

func (repo *ProjectRepository) Delete(ctx context.Context, id string) error {
	q := sq.Delete(tableProjects).Where(sq.Eq{projectFieldID: id})

	q = q.RunWith(repo.db)

	_, err := q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec delete: %w", err)
	}

	return nil
}

func (repo *ProjectRepository) Find(ctx context.Context, id string) (*portfolio.Project, error) {
	return repo.findBy(ctx, sq.Eq{projectFieldID: id}, id)
}

func (repo *ProjectRepository) FindBySlug(ctx context.Context, slug string) (*portfolio.Project, error) {
	return repo.findBy(ctx, sq.Eq{projectFieldSlug: slug}, slug)
}

func (repo *ProjectRepository) findBy(ctx context.Context, pred sq.Eq, ref string) (*portfolio.Project, error) {
	q := sq.Select(projectColumns()...).
		From(tableProjects).
		Where(pred)

	q = q.RunWith(repo.db)

	project, err := scanProject(q.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, portfolio.ProjectNotFoundError{Slug: ref}
		}

		return nil, fmt.Errorf("failed to scan project: %w", err)
	}

	err = repo.attachRelations(ctx, []*portfolio.Project{project})
	if err != nil {
		return nil, err
	}

	return project, nil
}

func (repo *ProjectRepository) List(ctx context.Context, params *portfolio.ListProjectsParams) ([]*portfolio.Project, error) {
	q := sq.Select(projectColumns()...).From(tableProjects)

	q, err := applyProjectFilters(q, params)
	if err != nil {
		return nil, err
	}

	q = q.OrderBy(projectOrderClause(params.OrderBy))

	if params.Limit > 0 {
		q = q.Limit(params.Limit).Offset(params.Offset)
	}

	q = q.RunWith(repo.db)

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	defer closeRows(ctx, rows)

	projects := make([]*portfolio.Project, 0)

	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}

		projects = append(projects, project)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	err = repo.attachRelations(ctx, projects)
	if err != nil {
		return nil, err
	}

	return projects, nil
}

func (repo *ProjectRepository) Count(ctx context.Context, params *portfolio.ListProjectsParams) (uint64, error) {
	q := sq.Select("COUNT(*)").From(tableProjects)

	q, err := applyProjectFilters(q, params)
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

func applyProjectFilters(q sq.SelectBuilder, params *portfolio.ListProjectsParams) (sq.SelectBuilder, error) {
	if params == nil {
		return q, nil
	}

	if params.Search != "" {
		pattern := "%" + strings.ToLower(params.Search) + "%"
		q = q.Where(sq.Or{
			sq.Like{"LOWER(" + projectFieldTitle + ")": pattern},
			sq.Like{"LOWER(" + projectFieldDescription + ")": pattern},
			sq.Like{"LOWER(" + projectFieldShortDescription + ")": pattern},
		})
	}

	if len(params.TechnologySlugs) > 0 {
		sub := sq.Select("project_technologies.project_id").
			From(tableProjectTechnologies).
			Join(tableTechnologies + " ON technologies.id = project_technologies.technology_id").
			Where(sq.Eq{"technologies.slug": params.TechnologySlugs})

		subSQL, subArgs, err := sub.ToSql()
		if err != nil {
			return q, fmt.Errorf("failed to build technology subquery: %w", err)
		}

		q = q.Where(sq.Expr(projectFieldID+" IN ("+subSQL+")", subArgs...))
	}

	if params.IsFeatured != nil {
		q = q.Where(sq.Eq{projectFieldIsFeatured: *params.IsFeatured})
	}

	return q, nil
}

func projectOrderClause(orderBy string) string {
	direction := "ASC"

	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		orderBy = orderBy[1:]
	}

	switch orderBy {
	case "created_at", "title":
		return orderBy + " " + direction
	case "order":
		return projectFieldDisplayOrder + " " + direction
	default:
		return projectFieldDisplayOrder + " ASC, " + projectFieldCreatedAt + " DESC"
	}
}

func (repo *ProjectRepository) attachRelations(ctx context.Context, projects []*portfolio.Project) error {
	if len(projects) == 0 {
		return nil
	}

	projectIDs := make([]string, 0, len(projects))
	for _, project := range projects {
		projectIDs = append(projectIDs, project.ID)
	}

	err := repo.attachTechnologies(ctx, projects, projectIDs)
	if err != nil {
		return err
	}

	return repo.attachImages(ctx, projects, projectIDs)
}

func (repo *ProjectRepository) attachTechnologies(ctx context.Context, projects []*portfolio.Project, projectIDs []string) error {
	q := sq.Select(
		"project_technologies.project_id",
		"technologies.id",
		"technologies.name",
		"technologies.slug",
		"technologies.icon",
		"technologies.created_at",
		"technologies.updated_at",
	).
		From(tableProjectTechnologies).
		Join(tableTechnologies + " ON technologies.id = project_technologies.technology_id").
		Where(sq.Eq{"project_technologies.project_id": projectIDs}).
		OrderBy("technologies.slug ASC")

	q = q.RunWith(repo.db)

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to query project technologies: %w", err)
	}

	defer closeRows(ctx, rows)

	byProject := make(map[string][]*portfolio.Technology, len(projects))

	for rows.Next() {
		var (
			projectID  string
			technology portfolio.Technology
		)

		err = rows.Scan(
			&projectID,
			&technology.ID,
			&technology.Name,
			&technology.Slug,
			&technology.Icon,
			&technology.CreatedAt,
			&technology.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to scan project technology: %w", err)
		}

		byProject[projectID] = append(byProject[projectID], &technology)
	}

	err = rows.Err()
	if err != nil {
		return fmt.Errorf("failed to iterate rows: %w", err)
	}

	for _, project := range projects {
		project.Technologies = byProject[project.ID]
	}

	return nil
}

func (repo *ProjectRepository) attachImages(ctx context.Context, projects []*portfolio.Project, projectIDs []string) error {
	q := sq.Select(projectImageColumns()...).
		From(tableProjectImages).
		Where(sq.Eq{projectImageFieldProjectID: projectIDs}).
		OrderBy(projectImageFieldDisplayOrder + " ASC")

	q = q.RunWith(repo.db)

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to query project images: %w", err)
	}

	defer closeRows(ctx, rows)

	byProject := make(map[string][]*portfolio.ProjectImage, len(projects))

	for rows.Next() {
		image, err := scanProjectImage(rows)
		if err != nil {
			return fmt.Errorf("failed to scan project image: %w", err)
		}

		byProject[image.ProjectID] = append(byProject[image.ProjectID], image)
	}

	err = rows.Err()
	if err != nil {
		return fmt.Errorf("failed to iterate rows: %w", err)
	}

	for _, project := range projects {
		project.Images = byProject[project.ID]
	}

	return nil
}
