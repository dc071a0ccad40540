package handlers

import (
	"context"
	"io"
	"time"

	"github.com/mediavault/backend/internal/apperrors"
	"github.com/mediavault/backend/internal/media"
	"github.com/mediavault/backend/internal/models"
	"github.com/mediavault/backend/internal/repositories"
)

type inMemoryUserStore struct {
	users map[string]models.User
}

func newInMemoryUserStore() *inMemoryUserStore {
	return &inMemoryUserStore{users: make(map[string]models.User)}
}

func (s *inMemoryUserStore) Create(_ context.Context, user models.User) error {
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *inMemoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *inMemoryUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *inMemoryUserStore) List(_ context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	return out, nil
}

func (s *inMemoryUserStore) Update(_ context.Context, user models.User) error {
	if _, ok := s.users[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.users[user.ID] = user
	return nil
}

func (s *inMemoryUserStore) Delete(_ context.Context, id string) error {
	if _, ok := s.users[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

type inMemoryTagStore struct {
	tags map[string]models.Tag
}

func newInMemoryTagStore() *inMemoryTagStore {
	return &inMemoryTagStore{tags: make(map[string]models.Tag)}
}

func (s *inMemoryTagStore) Create(_ context.Context, tag models.Tag) error {
	for _, existing := range s.tags {
		if existing.Name == tag.Name {
			return repositories.ErrConflict
		}
	}
	s.tags[tag.ID] = tag
	return nil
}

func (s *inMemoryTagStore) FindByID(_ context.Context, id string) (models.Tag, error) {
	tag, ok := s.tags[id]
	if !ok {
		return models.Tag{}, repositories.ErrNotFound
	}
	return tag, nil
}

func (s *inMemoryTagStore) List(_ context.Context) ([]models.Tag, error) {
	out := make([]models.Tag, 0, len(s.tags))
	for _, tag := range s.tags {
		out = append(out, tag)
	}
	return out, nil
}

func (s *inMemoryTagStore) Update(_ context.Context, tag models.Tag) error {
	if _, ok := s.tags[tag.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.tags[tag.ID] = tag
	return nil
}

func (s *inMemoryTagStore) Delete(_ context.Context, id string) error {
	if _, ok := s.tags[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.tags, id)
	return nil
}

// stubIngestor records calls and fabricates media records without touching
// storage.
type stubIngestor struct {
	commitOwner  string
	commitFiles  []media.File
	commitTagIDs []string
	commitErr    error

	records map[string]models.Media
}

func newStubIngestor() *stubIngestor {
	return &stubIngestor{records: make(map[string]models.Media)}
}

func (s *stubIngestor) Commit(_ context.Context, ownerID string, files []media.File, tagIDs []string) ([]models.Media, error) {
	s.commitOwner = ownerID
	s.commitFiles = files
	s.commitTagIDs = tagIDs
	if s.commitErr != nil {
		return nil, s.commitErr
	}

	created := make([]models.Media, len(files))
	for i, file := range files {
		record := models.Media{
			ID:            file.OriginalName,
			OwnerID:       ownerID,
			OriginalName:  file.OriginalName,
			FileType:      file.Category,
			FileExtension: file.Extension,
			FileSize:      file.Size,
		}
		s.records[record.ID] = record
		created[i] = record
	}
	return created, nil
}

func (s *stubIngestor) Get(_ context.Context, id string) (models.Media, error) {
	record, ok := s.records[id]
	if !ok {
		return models.Media{}, apperrors.NotFound("Media file", id)
	}
	record.NumberOfViews++
	s.records[id] = record
	return record, nil
}

func (s *stubIngestor) List(_ context.Context) ([]models.Media, error) {
	out := make([]models.Media, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, record)
	}
	return out, nil
}

func (s *stubIngestor) ListByOwner(_ context.Context, ownerID string) ([]models.Media, error) {
	var out []models.Media
	for _, record := range s.records {
		if record.OwnerID == ownerID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *stubIngestor) Update(_ context.Context, id string, replacement *media.File, tagIDs []string) (models.Media, error) {
	record, ok := s.records[id]
	if !ok {
		return models.Media{}, apperrors.NotFound("Media file", id)
	}
	if replacement != nil {
		record.OriginalName = replacement.OriginalName
		record.FileType = replacement.Category
		record.FileExtension = replacement.Extension
		record.FileSize = replacement.Size
	}
	s.records[id] = record
	return record, nil
}

func (s *stubIngestor) Remove(_ context.Context, id string) error {
	if _, ok := s.records[id]; !ok {
		return apperrors.NotFound("Media file", id)
	}
	delete(s.records, id)
	return nil
}

type stubImageStorage struct {
	saved map[string][]byte
}

func newStubImageStorage() *stubImageStorage {
	return &stubImageStorage{saved: make(map[string][]byte)}
}

func (s *stubImageStorage) Save(_ context.Context, key string, r io.Reader) (string, error) {
	contents, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.saved[key] = contents
	return "public/" + key, nil
}

type stubTokenIssuer struct {
	token string
	err   error
}

func (s stubTokenIssuer) Issue(models.User) (string, time.Time, error) {
	if s.err != nil {
		return "", time.Time{}, s.err
	}
	return s.token, time.Now().Add(time.Hour), nil
}

type stubRateLimiter struct {
	allow bool
}

func (s stubRateLimiter) Allow(string) bool {
	return s.allow
}
