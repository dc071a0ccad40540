package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage implements BlobStorage on a directory tree rooted at a
// configurable path. Stored objects are reachable over HTTP under /public/.
type LocalStorage struct {
	root string
}

// NewLocalStorage constructs a local backend rooted at the provided directory,
// creating the standard upload subtrees if they do not exist yet.
func NewLocalStorage(root string) (*LocalStorage, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("local storage: root is required")
	}

	for _, prefix := range []string{MediaPrefix, ImagePrefix} {
		if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(prefix)), 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory %s: %w", prefix, err)
		}
	}

	return &LocalStorage{root: root}, nil
}

// Root returns the directory the backend stores objects under.
func (s *LocalStorage) Root() string {
	return s.root
}

// Save writes the content to <root>/<key>. Writes go through a temporary file
// renamed into place so a concurrent reader never observes a partial object.
func (s *LocalStorage) Save(ctx context.Context, key string, r io.Reader) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", fmt.Errorf("local storage: empty key")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dst := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create directory for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file for %s: %w", key, err)
	}

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close %s: %w", key, err)
	}

	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("place %s: %w", key, err)
	}

	return fmt.Sprintf("%s/%s", filepath.Base(s.root), key), nil
}

// Remove deletes the object stored under the key.
func (s *LocalStorage) Remove(_ context.Context, key string) error {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return fmt.Errorf("local storage: empty key")
	}

	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

var _ BlobStorage = (*LocalStorage)(nil)
