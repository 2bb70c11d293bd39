package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the snapshot artifact inside the cache directory.
const FileName = "models_cache.json"

// ErrNotFound is returned by a Store that holds no snapshot.
var ErrNotFound = errors.New("cache snapshot not found")

// Store persists the single snapshot slot.
type Store interface {
	Load() ([]byte, error)
	Save(data []byte) error
	Remove() error
	Location() string
}

// FileStore keeps the snapshot in a JSON file.
type FileStore struct {
	dir string
}

// NewFileStore creates a store writing FileName under dir. The directory is
// created on first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path() string {
	return filepath.Join(s.dir, FileName)
}

// Load reads the snapshot file.
func (s *FileStore) Load() ([]byte, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Save replaces the snapshot file.
func (s *FileStore) Save(data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	return os.WriteFile(s.path(), data, 0o644)
}

// Remove deletes the snapshot file if present.
func (s *FileStore) Remove() error {
	if err := os.Remove(s.path()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Location returns the snapshot path.
func (s *FileStore) Location() string {
	return s.path()
}
