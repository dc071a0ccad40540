// Package storage places media bytes under stable keys. Two backends exist:
// a local directory tree served statically by the HTTP layer, and an
// S3-compatible object store for deployments with external storage.
//
// Key convention: uploads/media/<generatedName>.<ext> for media of every
// category and uploads/images/<generatedName>.<ext> for profile images. The
// split mirrors the public URL layout and is a deployment convention, not a
// correctness invariant.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound indicates the requested object does not exist in the backend.
var ErrNotFound = errors.New("storage: object not found")

const (
	// MediaPrefix is the key prefix for ingested media files.
	MediaPrefix = "uploads/media"
	// ImagePrefix is the key prefix for user profile images.
	ImagePrefix = "uploads/images"
)

// BlobStorage persists and removes stored objects.
type BlobStorage interface {
	// Save writes the content under the provided key and returns the
	// public location of the stored object.
	Save(ctx context.Context, key string, r io.Reader) (string, error)
	// Remove deletes the object stored under the key. Removing a missing
	// object returns ErrNotFound.
	Remove(ctx context.Context, key string) error
}
