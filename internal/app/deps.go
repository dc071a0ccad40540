package app

import (
	"context"
	"fmt"
	"time"

	"github.com/mediavault/backend/internal/auth"
	"github.com/mediavault/backend/internal/config"
	"github.com/mediavault/backend/internal/db"
	"github.com/mediavault/backend/internal/handlers"
	"github.com/mediavault/backend/internal/media"
	"github.com/mediavault/backend/internal/middleware"
	"github.com/mediavault/backend/internal/repositories"
	"github.com/mediavault/backend/internal/storage"
	"github.com/mediavault/backend/internal/upload"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	users := repositories.NewPostgresUserRepository(pool)
	tags := repositories.NewPostgresTagRepository(pool)
	mediaRepo := repositories.NewPostgresMediaRepository(pool)

	blobs, staticRoot, err := buildStorage(ctx, cfg)
	if err != nil {
		return handlers.Dependencies{}, err
	}

	tokens := auth.NewTokenManager([]byte(cfg.JWTSecret), cfg.JWTTTL, cfg.JWTLeeway)

	return handlers.Dependencies{
		Users:    users,
		Tags:     tags,
		Media:    media.NewService(mediaRepo, tags, blobs),
		Images:   blobs,
		Tokens:   tokens,
		Verifier: tokens,
		Resolver: auth.NewResolver(users),
		Admitter: upload.NewAdmitter(cfg.VerifyContent),

		LoginLimiter: middleware.NewIPRateLimiter(
			cfg.LoginRateRequests,
			cfg.LoginRateWindow,
			cfg.LoginRateBurst,
			10*time.Minute,
		),

		MaxUploadBytes: cfg.MaxUploadBytes,
		MaxUploadFiles: cfg.MaxUploadFiles,
		StaticRoot:     staticRoot,
	}, nil
}

// buildStorage selects the blob backend. The local backend also serves its
// files over /public; the object store exposes its own URLs.
func buildStorage(ctx context.Context, cfg config.Config) (storage.BlobStorage, string, error) {
	switch cfg.StorageBackend {
	case "s3":
		blobs, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return nil, "", fmt.Errorf("configure object storage: %w", err)
		}
		return blobs, "", nil
	case "local", "":
		blobs, err := storage.NewLocalStorage(cfg.StorageRoot)
		if err != nil {
			return nil, "", fmt.Errorf("prepare local storage: %w", err)
		}
		return blobs, cfg.StorageRoot, nil
	default:
		return nil, "", fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
