// Package content keeps book binaries on disk under one managed directory.
//
// Files are named by the caller-supplied filename and are never the source
// of truth for metadata; the catalog row in the database is. Filenames are
// joined to the directory as given and are not sanitized.
package content

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dshills/shelf-mcp/pkg/types"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Store reads and writes book content files in a single directory.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("content directory is empty")
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create content dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the managed directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns where filename is stored.
func (s *Store) Path(filename string) string {
	return filepath.Join(s.dir, filename)
}

// Write stores data under filename and returns its path. The bytes go to a
// temp file in the same directory that is synced and renamed over the
// target, so a crash leaves either the old file or the complete new one.
func (s *Store) Write(filename string, data []byte) (path string, err error) {
	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return "", fmt.Errorf("create content dir: %w", err)
	}
	path = s.Path(filename)

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(filename)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return "", fmt.Errorf("write %s: %w", filename, err)
	}
	if err = tmp.Sync(); err != nil {
		return "", fmt.Errorf("sync %s: %w", filename, err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", filename, err)
	}
	if err = os.Chmod(tmpPath, filePerm); err != nil {
		return "", fmt.Errorf("chmod %s: %w", filename, err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("replace %s: %w", filename, err)
	}
	return path, nil
}

// Read returns the content of filename. A missing file is types.ErrNotFound.
func (s *Store) Read(filename string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(filename))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("content %q: %w", filename, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	return data, nil
}

// Delete removes filename. A file that is already gone is not an error.
func (s *Store) Delete(filename string) error {
	err := os.Remove(s.Path(filename))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", filename, err)
	}
	return nil
}

// Wipe removes the managed directory with everything in it and recreates it
// empty.
func (s *Store) Wipe() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("remove content dir: %w", err)
	}
	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return fmt.Errorf("recreate content dir: %w", err)
	}
	return nil
}

// Count reports how many regular files the directory holds.
func (s *Store) Count() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("list content dir: %w", err)
	}
	n := 0
	for _, e := range entries {
		if e.Type().IsRegular() {
			n++
		}
	}
	return n, nil
}
