package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStorage writes keys as file paths on the local (or mounted network) filesystem.
type LocalStorage struct{}

func NewLocalStorage() *LocalStorage {
	return &LocalStorage{}
}

func (s *LocalStorage) Upload(ctx context.Context, key string, data io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(key), 0o755); err != nil {
		return fmt.Errorf("error creating directory for %s: %w", key, err)
	}
	f, err := os.Create(key)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", key, err)
	}
	if _, err := io.Copy(f, data); err != nil {
		f.Close()
		return fmt.Errorf("error writing %s: %w", key, err)
	}
	return f.Close()
}
