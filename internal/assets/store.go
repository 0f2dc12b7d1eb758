package assets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store is the read-only bundled asset namespace. Names are exact
// strings; a name missing from List is not an error, just nothing to
// stage.
type Store interface {
	// List returns the names of all bundled assets.
	List() ([]string, error)
	// Open opens an asset by exact name for reading.
	Open(name string) (io.ReadCloser, error)
}

// DirStore is a Store backed by the deploy-time asset directory.
type DirStore struct {
	dir string
}

// NewDirStore creates a store over the given asset directory.
func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

// List returns the file names in the asset directory. Subdirectories
// are not descended into; the asset namespace is flat.
func (s *DirStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list asset dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}

	return names, nil
}

// Open opens an asset file by name.
func (s *DirStore) Open(name string) (io.ReadCloser, error) {
	// Asset names are flat; reject anything that resolves elsewhere.
	if filepath.Base(name) != name {
		return nil, fmt.Errorf("invalid asset name: %s", name)
	}

	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("open asset %s: %w", name, err)
	}
	return f, nil
}
