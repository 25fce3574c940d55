package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"minicloud/internal/drive"
)

// DiskStore allocates paths under a single managed root directory:
//
//	<root>/
//	  <folderID>/                 (one directory per folder)
//	    <fileID>_<sanitized name> (stored objects)
type DiskStore struct {
	root string
}

// NewDiskStore creates a DiskStore rooted at the given path, creating the
// directory if needed.
func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating managed root: %w", err)
	}
	return &DiskStore{root: root}, nil
}

// Root returns the managed root directory.
func (s *DiskStore) Root() string {
	return s.root
}

// AllocateFolderDir returns <root>/<folderID>, creating it if needed.
func (s *DiskStore) AllocateFolderDir(folderID string) (string, error) {
	dir := filepath.Join(s.root, folderID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating folder directory: %w", err)
	}
	return dir, nil
}

// FilePath returns <folderDir>/<fileID>_<sanitized name>.
func (s *DiskStore) FilePath(folderDir, fileID, name string) string {
	return filepath.Join(folderDir, fileID+"_"+SanitizeFilename(name))
}

// WriteFile streams r to path and returns the bytes written.
// A partially written file is removed on error.
func (s *DiskStore) WriteFile(path string, r io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating file: %w", err)
	}

	written, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(path)
		return 0, fmt.Errorf("writing file: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("closing file: %w", err)
	}

	return written, nil
}

// Open opens a stored object for reading.
func (s *DiskStore) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	return f, nil
}

// Rename moves a stored object.
func (s *DiskStore) Rename(oldPath, newPath string) error {
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("renaming file: %w", err)
	}
	return nil
}

// Remove deletes a single stored object. A missing object is not an
// error: the disk copy may have been removed out-of-band.
func (s *DiskStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing file: %w", err)
	}
	return nil
}

// RemoveTree recursively deletes a folder directory.
func (s *DiskStore) RemoveTree(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("removing directory: %w", err)
	}
	return nil
}

// EraseAll removes every entry under the managed root, keeping the root
// directory itself. The first error is returned after attempting all
// entries.
func (s *DiskStore) EraseAll() error {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return fmt.Errorf("reading managed root: %w", err)
	}

	var firstErr error
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(s.root, entry.Name())); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("removing %s: %w", entry.Name(), err)
		}
	}
	return firstErr
}

// Compile-time check that DiskStore implements drive.Store
var _ drive.Store = (*DiskStore)(nil)
