package repositories

import (
	"context"

	"github.com/mediavault/backend/internal/models"
)

// TagRepository defines the data access contract for tags.
type TagRepository interface {
	Create(ctx context.Context, tag models.Tag) error
	FindByID(ctx context.Context, id string) (models.Tag, error)
	// FindByIDs resolves the provided identifiers against existing tags.
	// Unknown identifiers are dropped silently, not reported as errors.
	FindByIDs(ctx context.Context, ids []string) ([]models.Tag, error)
	List(ctx context.Context) ([]models.Tag, error)
	Update(ctx context.Context, tag models.Tag) error
	Delete(ctx context.Context, id string) error
}
