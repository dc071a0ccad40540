package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/mediavault/backend/internal/apperrors"
	"github.com/mediavault/backend/internal/models"
	"github.com/mediavault/backend/internal/repositories"
	"github.com/mediavault/backend/internal/storage"
	"github.com/mediavault/backend/internal/upload"
)

type stubMediaStore struct {
	records   map[string]models.Media
	createErr func(models.Media) error
}

func newStubMediaStore() *stubMediaStore {
	return &stubMediaStore{records: make(map[string]models.Media)}
}

func (s *stubMediaStore) Create(_ context.Context, media models.Media) error {
	if s.createErr != nil {
		if err := s.createErr(media); err != nil {
			return err
		}
	}
	s.records[media.ID] = media
	return nil
}

func (s *stubMediaStore) FindByID(_ context.Context, id string) (models.Media, error) {
	record, ok := s.records[id]
	if !ok {
		return models.Media{}, repositories.ErrNotFound
	}
	return record, nil
}

func (s *stubMediaStore) FindByIDIncrementingViews(_ context.Context, id string) (models.Media, error) {
	record, ok := s.records[id]
	if !ok {
		return models.Media{}, repositories.ErrNotFound
	}
	record.NumberOfViews++
	s.records[id] = record
	return record, nil
}

func (s *stubMediaStore) List(_ context.Context) ([]models.Media, error) {
	out := make([]models.Media, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, record)
	}
	return out, nil
}

func (s *stubMediaStore) ListByOwner(_ context.Context, ownerID string) ([]models.Media, error) {
	var out []models.Media
	for _, record := range s.records {
		if record.OwnerID == ownerID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *stubMediaStore) Update(_ context.Context, media models.Media) error {
	if _, ok := s.records[media.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.records[media.ID] = media
	return nil
}

func (s *stubMediaStore) Delete(_ context.Context, id string) error {
	if _, ok := s.records[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

type stubTagResolver struct {
	tags map[string]models.Tag
}

func (s *stubTagResolver) FindByIDs(_ context.Context, ids []string) ([]models.Tag, error) {
	var out []models.Tag
	for _, id := range ids {
		if tag, ok := s.tags[id]; ok {
			out = append(out, tag)
		}
	}
	return out, nil
}

type stubBlobStorage struct {
	blobs   map[string]string
	saveErr error
}

func newStubBlobStorage() *stubBlobStorage {
	return &stubBlobStorage{blobs: make(map[string]string)}
}

func (s *stubBlobStorage) Save(_ context.Context, key string, r io.Reader) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	contents, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.blobs[key] = string(contents)
	return "public/" + key, nil
}

func (s *stubBlobStorage) Remove(_ context.Context, key string) error {
	if _, ok := s.blobs[key]; !ok {
		return storage.ErrNotFound
	}
	delete(s.blobs, key)
	return nil
}

func sequentialIDs(prefix string) func() string {
	var n int
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func admittedFile(name, mime string, category models.MediaType, ext, content string) File {
	return File{
		Admitted: upload.Admitted{
			Candidate: upload.Candidate{OriginalName: name, DeclaredMIME: mime, Size: int64(len(content))},
			Category:  category,
			Extension: ext,
		},
		Content: strings.NewReader(content),
	}
}

func TestServiceCommit(t *testing.T) {
	store := newStubMediaStore()
	blobs := newStubBlobStorage()
	tags := &stubTagResolver{tags: map[string]models.Tag{
		"tag-1": {ID: "tag-1", Name: "holiday"},
	}}

	svc := NewService(store, tags, blobs).
		WithIDFunc(sequentialIDs("id")).
		WithNowFunc(func() time.Time { return time.Unix(1700000000, 0).UTC() })

	created, err := svc.Commit(context.Background(), "owner-1", []File{
		admittedFile("beach.jpg", "image/jpeg", models.MediaTypeImage, "jpg", "jpeg-bytes"),
		admittedFile("clip.mp4", "video/mp4", models.MediaTypeVideo, "mp4", "mp4-bytes"),
	}, []string{"tag-1", "tag-unknown"})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 records got %d", len(created))
	}

	first := created[0]
	if first.OwnerID != "owner-1" {
		t.Fatalf("expected owner-1, got %q", first.OwnerID)
	}
	if first.OriginalName != "beach.jpg" {
		t.Fatalf("expected original name preserved, got %q", first.OriginalName)
	}
	if first.FileName == "beach.jpg" {
		t.Fatal("expected a generated storage name, got the original name")
	}
	if !strings.HasSuffix(first.FileName, ".jpg") {
		t.Fatalf("expected storage name to keep the extension, got %q", first.FileName)
	}
	if !strings.HasPrefix(first.FilePath, "public/uploads/media/") {
		t.Fatalf("unexpected file path %q", first.FilePath)
	}

	// The unknown tag id is dropped silently; the known one is attached.
	if len(first.Tags) != 1 || first.Tags[0].ID != "tag-1" {
		t.Fatalf("expected only the resolved tag, got %+v", first.Tags)
	}

	if len(blobs.blobs) != 2 {
		t.Fatalf("expected 2 stored blobs got %d", len(blobs.blobs))
	}
	if len(store.records) != 2 {
		t.Fatalf("expected 2 persisted records got %d", len(store.records))
	}
}

func TestServiceCommitPartialFailureKeepsEarlierRecords(t *testing.T) {
	store := newStubMediaStore()
	blobs := newStubBlobStorage()
	tags := &stubTagResolver{tags: map[string]models.Tag{}}

	var calls int
	store.createErr = func(models.Media) error {
		calls++
		if calls == 2 {
			return errors.New("disk full")
		}
		return nil
	}

	svc := NewService(store, tags, blobs).WithIDFunc(sequentialIDs("id"))

	created, err := svc.Commit(context.Background(), "owner-1", []File{
		admittedFile("a.png", "image/png", models.MediaTypeImage, "png", "a"),
		admittedFile("b.png", "image/png", models.MediaTypeImage, "png", "b"),
	}, nil)
	if err == nil {
		t.Fatal("expected an error from the second file")
	}
	if len(created) != 1 {
		t.Fatalf("expected the first record to survive, got %d", len(created))
	}
	if len(store.records) != 1 {
		t.Fatalf("expected 1 persisted record got %d", len(store.records))
	}
	// The failing file's blob is cleaned up; the first one stays.
	if len(blobs.blobs) != 1 {
		t.Fatalf("expected the failing blob to be removed, got %d blobs", len(blobs.blobs))
	}
}

func TestServiceCommitUnknownOwner(t *testing.T) {
	store := newStubMediaStore()
	store.createErr = func(models.Media) error { return repositories.ErrNotFound }

	svc := NewService(store, &stubTagResolver{}, newStubBlobStorage())

	_, err := svc.Commit(context.Background(), "ghost", []File{
		admittedFile("a.png", "image/png", models.MediaTypeImage, "png", "a"),
	}, nil)

	var notFound *apperrors.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if notFound.Entity != "User" || notFound.ID != "ghost" {
		t.Fatalf("unexpected not-found details %+v", notFound)
	}
}

func TestServiceGetIncrementsViews(t *testing.T) {
	store := newStubMediaStore()
	store.records["media-1"] = models.Media{ID: "media-1", FileName: "x.png"}

	svc := NewService(store, &stubTagResolver{}, newStubBlobStorage())

	for want := int64(1); want <= 3; want++ {
		record, err := svc.Get(context.Background(), "media-1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if record.NumberOfViews != want {
			t.Fatalf("expected %d views got %d", want, record.NumberOfViews)
		}
	}
}

func TestServiceGetUnknownID(t *testing.T) {
	svc := NewService(newStubMediaStore(), &stubTagResolver{}, newStubBlobStorage())

	_, err := svc.Get(context.Background(), "missing")

	var notFound *apperrors.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if notFound.Entity != "Media file" {
		t.Fatalf("expected entity %q got %q", "Media file", notFound.Entity)
	}
}

func TestServiceUpdateReplacesFileAndTags(t *testing.T) {
	store := newStubMediaStore()
	blobs := newStubBlobStorage()
	blobs.blobs["uploads/media/old.png"] = "old"
	store.records["media-1"] = models.Media{
		ID:            "media-1",
		FileName:      "old.png",
		OriginalName:  "original.png",
		FileType:      models.MediaTypeImage,
		FileExtension: "png",
		Tags:          []models.Tag{{ID: "tag-1"}},
	}

	tags := &stubTagResolver{tags: map[string]models.Tag{
		"tag-2": {ID: "tag-2", Name: "replacement"},
	}}

	svc := NewService(store, tags, blobs).WithIDFunc(sequentialIDs("new"))

	replacement := admittedFile("video.mp4", "video/mp4", models.MediaTypeVideo, "mp4", "mp4-bytes")
	record, err := svc.Update(context.Background(), "media-1", &replacement, []string{"tag-2"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if record.FileType != models.MediaTypeVideo || record.FileExtension != "mp4" {
		t.Fatalf("expected replaced file metadata, got %+v", record)
	}
	if record.OriginalName != "video.mp4" {
		t.Fatalf("expected new original name, got %q", record.OriginalName)
	}
	if len(record.Tags) != 1 || record.Tags[0].ID != "tag-2" {
		t.Fatalf("expected replaced tags, got %+v", record.Tags)
	}
	if _, ok := blobs.blobs["uploads/media/old.png"]; ok {
		t.Fatal("expected the replaced blob to be removed")
	}
}

func TestServiceUpdateNilTagsLeavesAssociations(t *testing.T) {
	store := newStubMediaStore()
	store.records["media-1"] = models.Media{
		ID:   "media-1",
		Tags: []models.Tag{{ID: "tag-1"}},
	}

	svc := NewService(store, &stubTagResolver{}, newStubBlobStorage())

	record, err := svc.Update(context.Background(), "media-1", nil, nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(record.Tags) != 1 || record.Tags[0].ID != "tag-1" {
		t.Fatalf("expected untouched tags, got %+v", record.Tags)
	}
}

func TestServiceUpdateEmptyTagsClearsAssociations(t *testing.T) {
	store := newStubMediaStore()
	store.records["media-1"] = models.Media{
		ID:   "media-1",
		Tags: []models.Tag{{ID: "tag-1"}},
	}

	svc := NewService(store, &stubTagResolver{}, newStubBlobStorage())

	record, err := svc.Update(context.Background(), "media-1", nil, []string{})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(record.Tags) != 0 {
		t.Fatalf("expected cleared tags, got %+v", record.Tags)
	}
}

func TestServiceRemove(t *testing.T) {
	store := newStubMediaStore()
	blobs := newStubBlobStorage()
	blobs.blobs["uploads/media/x.png"] = "bytes"
	store.records["media-1"] = models.Media{ID: "media-1", FileName: "x.png"}

	svc := NewService(store, &stubTagResolver{}, blobs)

	if err := svc.Remove(context.Background(), "media-1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(store.records) != 0 {
		t.Fatal("expected the record to be deleted")
	}
	if len(blobs.blobs) != 0 {
		t.Fatal("expected the blob to be deleted")
	}
}

func TestServiceRemoveMissingBlobIsNotFatal(t *testing.T) {
	store := newStubMediaStore()
	store.records["media-1"] = models.Media{ID: "media-1", FileName: "gone.png"}

	svc := NewService(store, &stubTagResolver{}, newStubBlobStorage())

	if err := svc.Remove(context.Background(), "media-1"); err != nil {
		t.Fatalf("expected missing blob to be tolerated, got %v", err)
	}
	if len(store.records) != 0 {
		t.Fatal("expected the record to be deleted")
	}
}
