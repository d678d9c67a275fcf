package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileRecords keeps one JSON file per key inside a directory. Writes go to
// a temporary file that is renamed over the old one, so a crash never
// leaves a half-written record behind.
type FileRecords struct {
	mu  sync.Mutex
	dir string
}

// NewFileRecords creates dir if needed.
func NewFileRecords(dir string) (*FileRecords, error) {
	if dir == "" {
		return nil, errors.New("file store: directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create store directory %s: %w", dir, err)
	}
	return &FileRecords{dir: dir}, nil
}

func (f *FileRecords) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *FileRecords) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (f *FileRecords) Put(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(f.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, f.path(key))
}
