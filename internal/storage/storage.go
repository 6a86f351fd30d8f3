// Package storage persists product images behind a small blob-store
// contract: write bytes under a key, get back a public URL.
package storage

import (
	"context"
	"os"
	"path/filepath"
)

type BlobStore interface {
	// Store writes the object and returns its public URL.
	Store(ctx context.Context, data []byte, contentType, key string) (string, error)
}

// LocalStore is the fallback when no bucket is configured: files land in
// the media directory served under /media.
type LocalStore struct {
	Dir string
}

func (s *LocalStore) Store(_ context.Context, data []byte, _ string, key string) (string, error) {
	key = filepath.Base(key) // uploads are flat; no traversal via key
	dir := filepath.Join(s.Dir, "uploads")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, key), data, 0644); err != nil {
		return "", err
	}
	return "/media/uploads/" + key, nil
}
