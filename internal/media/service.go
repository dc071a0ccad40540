// Package media implements the ingestion pipeline behind the upload
// endpoints: placing admitted files into storage, persisting their records,
// and maintaining tag associations and view counts.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/mediavault/backend/internal/apperrors"
	"github.com/mediavault/backend/internal/logging"
	"github.com/mediavault/backend/internal/models"
	"github.com/mediavault/backend/internal/repositories"
	"github.com/mediavault/backend/internal/storage"
	"github.com/mediavault/backend/internal/upload"
)

// MediaStore captures the persistence operations required by the service.
type MediaStore interface {
	Create(ctx context.Context, media models.Media) error
	FindByID(ctx context.Context, id string) (models.Media, error)
	FindByIDIncrementingViews(ctx context.Context, id string) (models.Media, error)
	List(ctx context.Context) ([]models.Media, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Media, error)
	Update(ctx context.Context, media models.Media) error
	Delete(ctx context.Context, id string) error
}

// TagResolver looks up tag records for the identifiers attached to an upload.
type TagResolver interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Tag, error)
}

// File pairs an admitted upload candidate with its content.
type File struct {
	upload.Admitted
	Content io.Reader
}

// Service commits admitted uploads and serves the media read/update/delete paths.
type Service struct {
	store   MediaStore
	tags    TagResolver
	blobs   storage.BlobStorage
	nowFunc func() time.Time
	idFunc  func() string
}

// NewService constructs the ingestion service.
func NewService(store MediaStore, tags TagResolver, blobs storage.BlobStorage) *Service {
	if store == nil || tags == nil || blobs == nil {
		panic("media: store, tag resolver, and blob storage must not be nil")
	}
	return &Service{
		store:   store,
		tags:    tags,
		blobs:   blobs,
		nowFunc: func() time.Time { return time.Now().UTC() },
		idFunc:  uuid.NewString,
	}
}

// WithNowFunc overrides the time source. Useful for tests.
func (s *Service) WithNowFunc(now func() time.Time) *Service {
	s.nowFunc = now
	return s
}

// WithIDFunc overrides the identifier source. Useful for tests.
func (s *Service) WithIDFunc(id func() string) *Service {
	s.idFunc = id
	return s
}

// Commit persists each admitted file: a collision-free storage name is
// assigned, bytes are placed into storage, and a media record referencing the
// owner is created with the resolved tag associations. Tag identifiers that do
// not match an existing tag are dropped silently.
//
// Each file is an independent unit: a failure on file N returns the records
// created for files before N together with the error; earlier commits are not
// rolled back. The blob written for the failing file is removed best-effort.
func (s *Service) Commit(ctx context.Context, ownerID string, files []File, tagIDs []string) ([]models.Media, error) {
	ctx, span := logging.StartSpan(ctx, "media.commit")
	defer span.End()

	logger := logging.FromContext(ctx)

	tags, err := s.tags.FindByIDs(ctx, tagIDs)
	if err != nil {
		return nil, apperrors.Persistence("resolve tags", err)
	}
	if len(tags) < len(tagIDs) {
		logger.Debug("dropped unknown tag ids", "requested", len(tagIDs), "resolved", len(tags))
	}

	var created []models.Media
	for _, file := range files {
		record, err := s.commitOne(ctx, ownerID, file, tags)
		if err != nil {
			return created, err
		}

		logger.Info("media file ingested",
			"mediaId", record.ID,
			"ownerId", ownerID,
			"fileName", record.FileName,
			"fileType", record.FileType,
			"fileSize", record.FileSize,
		)
		created = append(created, record)
	}

	return created, nil
}

func (s *Service) commitOne(ctx context.Context, ownerID string, file File, tags []models.Tag) (models.Media, error) {
	storageName := fmt.Sprintf("%s.%s", s.idFunc(), file.Extension)
	key := path.Join(storage.MediaPrefix, storageName)

	location, err := s.blobs.Save(ctx, key, file.Content)
	if err != nil {
		return models.Media{}, apperrors.Persistence("store media file", err)
	}

	now := s.nowFunc()
	record := models.Media{
		ID:            s.idFunc(),
		OwnerID:       ownerID,
		FileName:      storageName,
		OriginalName:  file.OriginalName,
		FilePath:      location,
		FileType:      file.Category,
		FileExtension: file.Extension,
		FileSize:      file.Size,
		Tags:          tags,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.Create(ctx, record); err != nil {
		if removeErr := s.blobs.Remove(ctx, key); removeErr != nil && !errors.Is(removeErr, storage.ErrNotFound) {
			logging.FromContext(ctx).Error("orphaned blob after failed media insert", "key", key, "error", removeErr)
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Media{}, apperrors.NotFound("User", ownerID)
		}
		return models.Media{}, apperrors.Persistence("insert media record", err)
	}

	return record, nil
}

// Get returns the media record, incrementing its view counter exactly once as
// an atomic side effect of the successful read.
func (s *Service) Get(ctx context.Context, id string) (models.Media, error) {
	ctx, span := logging.StartSpan(ctx, "media.get")
	defer span.End()

	record, err := s.store.FindByIDIncrementingViews(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Media{}, apperrors.NotFound("Media file", id)
		}
		return models.Media{}, apperrors.Persistence("read media record", err)
	}

	return record, nil
}

// List returns every media record with tags attached.
func (s *Service) List(ctx context.Context) ([]models.Media, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, apperrors.Persistence("list media records", err)
	}
	return records, nil
}

// ListByOwner returns the media records owned by the provided user.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]models.Media, error) {
	records, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperrors.Persistence("list media records", err)
	}
	return records, nil
}

// Update replaces the record's file when a replacement is provided and its tag
// set when tagIDs is non-nil. A nil tagIDs leaves associations untouched.
func (s *Service) Update(ctx context.Context, id string, replacement *File, tagIDs []string) (models.Media, error) {
	ctx, span := logging.StartSpan(ctx, "media.update")
	defer span.End()

	record, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Media{}, apperrors.NotFound("Media file", id)
		}
		return models.Media{}, apperrors.Persistence("read media record", err)
	}

	oldKey := ""
	if replacement != nil {
		storageName := fmt.Sprintf("%s.%s", s.idFunc(), replacement.Extension)
		key := path.Join(storage.MediaPrefix, storageName)

		location, err := s.blobs.Save(ctx, key, replacement.Content)
		if err != nil {
			return models.Media{}, apperrors.Persistence("store media file", err)
		}

		oldKey = path.Join(storage.MediaPrefix, record.FileName)
		record.FileName = storageName
		record.OriginalName = replacement.OriginalName
		record.FilePath = location
		record.FileType = replacement.Category
		record.FileExtension = replacement.Extension
		record.FileSize = replacement.Size
	}

	if tagIDs != nil {
		tags, err := s.tags.FindByIDs(ctx, tagIDs)
		if err != nil {
			return models.Media{}, apperrors.Persistence("resolve tags", err)
		}
		record.Tags = tags
	}

	record.UpdatedAt = s.nowFunc()

	if err := s.store.Update(ctx, record); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Media{}, apperrors.NotFound("Media file", id)
		}
		return models.Media{}, apperrors.Persistence("update media record", err)
	}

	if oldKey != "" {
		if err := s.blobs.Remove(ctx, oldKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
			logging.FromContext(ctx).Warn("failed to remove replaced media file", "key", oldKey, "error", err)
		}
	}

	return record, nil
}

// Remove deletes the media record and its stored object together. A storage
// object that is already missing is logged, not fatal: the record deletion
// still succeeds.
func (s *Service) Remove(ctx context.Context, id string) error {
	ctx, span := logging.StartSpan(ctx, "media.remove")
	defer span.End()

	record, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NotFound("Media file", id)
		}
		return apperrors.Persistence("read media record", err)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NotFound("Media file", id)
		}
		return apperrors.Persistence("delete media record", err)
	}

	key := path.Join(storage.MediaPrefix, record.FileName)
	if err := s.blobs.Remove(ctx, key); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logging.FromContext(ctx).Warn("stored object already missing on delete", "key", key, "mediaId", id)
		} else {
			logging.FromContext(ctx).Error("failed to remove stored object", "key", key, "mediaId", id, "error", err)
		}
	}

	return nil
}
