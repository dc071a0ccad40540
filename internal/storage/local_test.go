package storage

import (
	"context"
	"errors"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStorageCreatesUploadTrees(t *testing.T) {
	root := filepath.Join(t.TempDir(), "public")

	if _, err := NewLocalStorage(root); err != nil {
		t.Fatalf("new local storage: %v", err)
	}

	for _, prefix := range []string{MediaPrefix, ImagePrefix} {
		info, err := os.Stat(filepath.Join(root, filepath.FromSlash(prefix)))
		if err != nil {
			t.Fatalf("expected %s to exist: %v", prefix, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %s to be a directory", prefix)
		}
	}
}

func TestLocalStorageSaveAndRemove(t *testing.T) {
	root := filepath.Join(t.TempDir(), "public")
	store, err := NewLocalStorage(root)
	if err != nil {
		t.Fatalf("new local storage: %v", err)
	}

	key := path.Join(MediaPrefix, "clip.mp4")
	location, err := store.Save(context.Background(), key, strings.NewReader("mp4-bytes"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if location != "public/uploads/media/clip.mp4" {
		t.Fatalf("unexpected location %q", location)
	}

	contents, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(key)))
	if err != nil {
		t.Fatalf("read saved object: %v", err)
	}
	if string(contents) != "mp4-bytes" {
		t.Fatalf("unexpected contents %q", contents)
	}

	if err := store.Remove(context.Background(), key); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(key))); !os.IsNotExist(err) {
		t.Fatalf("expected object to be gone, got %v", err)
	}
}

func TestLocalStorageSaveOverwrites(t *testing.T) {
	root := filepath.Join(t.TempDir(), "public")
	store, err := NewLocalStorage(root)
	if err != nil {
		t.Fatalf("new local storage: %v", err)
	}

	key := path.Join(ImagePrefix, "avatar.png")
	if _, err := store.Save(context.Background(), key, strings.NewReader("v1")); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if _, err := store.Save(context.Background(), key, strings.NewReader("v2")); err != nil {
		t.Fatalf("second save: %v", err)
	}

	contents, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(key)))
	if err != nil {
		t.Fatalf("read saved object: %v", err)
	}
	if string(contents) != "v2" {
		t.Fatalf("expected overwrite, got %q", contents)
	}
}

func TestLocalStorageRemoveMissing(t *testing.T) {
	store, err := NewLocalStorage(filepath.Join(t.TempDir(), "public"))
	if err != nil {
		t.Fatalf("new local storage: %v", err)
	}

	if err := store.Remove(context.Background(), path.Join(MediaPrefix, "missing.png")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalStorageRejectsEmptyRoot(t *testing.T) {
	if _, err := NewLocalStorage("  "); err == nil {
		t.Fatal("expected an error for an empty root")
	}
}
