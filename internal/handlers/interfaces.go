package handlers

import (
	"context"
	"io"
	"time"

	"github.com/mediavault/backend/internal/media"
	"github.com/mediavault/backend/internal/models"
)

// UserStore captures the persistence operations required by the user and auth handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, user models.User) error
	Delete(ctx context.Context, id string) error
}

// TagStore captures the persistence operations required by the tag handlers.
type TagStore interface {
	Create(ctx context.Context, tag models.Tag) error
	FindByID(ctx context.Context, id string) (models.Tag, error)
	List(ctx context.Context) ([]models.Tag, error)
	Update(ctx context.Context, tag models.Tag) error
	Delete(ctx context.Context, id string) error
}

// TokenIssuer signs bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(user models.User) (string, time.Time, error)
}

// MediaIngestor is the ingestion pipeline consumed by the media handlers.
type MediaIngestor interface {
	Commit(ctx context.Context, ownerID string, files []media.File, tagIDs []string) ([]models.Media, error)
	Get(ctx context.Context, id string) (models.Media, error)
	List(ctx context.Context) ([]models.Media, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Media, error)
	Update(ctx context.Context, id string, replacement *media.File, tagIDs []string) (models.Media, error)
	Remove(ctx context.Context, id string) error
}

// ProfileImageStorage persists user profile images.
type ProfileImageStorage interface {
	Save(ctx context.Context, key string, r io.Reader) (string, error)
}
