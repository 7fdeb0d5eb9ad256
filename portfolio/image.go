package portfolio

import (
	"context"
	"fmt"
	"time"
)

// ProjectImage is one gallery image attached to a project, ordered by the
// Order field.
type ProjectImage struct {
	ID        string
	ProjectID string
	Image     string
	Caption   string
	Order     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ListProjectImagesParams struct {
	ProjectID string
	Limit     uint64
	Offset    uint64
}

type ProjectImageRepository interface {
	Insert(ctx context.Context, image *ProjectImage) (err error)
	Update(ctx context.Context, image *ProjectImage) (err error)
	Delete(ctx context.Context, id string) (err error)
	Find(ctx context.Context, id string) (image *ProjectImage, err error)
	List(ctx context.Context, params *ListProjectImagesParams) (images []*ProjectImage, err error)
	Count(ctx context.Context, params *ListProjectImagesParams) (count uint64, err error)
}

type ProjectImageNotFoundError struct {
	ID string
}

func (err ProjectImageNotFoundError) Error() string {
	return fmt.Sprintf("project image with id %q not found", err.ID)
}
