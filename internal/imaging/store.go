package imaging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store writes processed images into a flat directory with collision-free
// names. No subdirectories, no sidecar metadata.
type Store struct {
	dir string
}

// NewStore creates the images directory if needed and returns a Store.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create images directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Save writes the image bytes under a fresh uuid-based filename and
// returns the stable path.
func (s *Store) Save(data []byte, ext string) (string, error) {
	if ext == "" {
		ext = ".jpg"
	}
	path := filepath.Join(s.dir, uuid.NewString()+ext)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}
	return path, nil
}
