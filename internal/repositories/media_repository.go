package repositories

import (
	"context"

	"github.com/mediavault/backend/internal/models"
)

// MediaRepository defines the data access contract for media records.
type MediaRepository interface {
	// Create persists the record together with its tag associations.
	Create(ctx context.Context, media models.Media) error
	FindByID(ctx context.Context, id string) (models.Media, error)
	// FindByIDIncrementingViews atomically increments the view counter as a
	// side effect of a successful read and returns the updated record.
	// Concurrent reads of the same record must not lose increments.
	FindByIDIncrementingViews(ctx context.Context, id string) (models.Media, error)
	List(ctx context.Context) ([]models.Media, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Media, error)
	// Update rewrites the record's mutable fields and replaces its tag set.
	Update(ctx context.Context, media models.Media) error
	Delete(ctx context.Context, id string) error
}
