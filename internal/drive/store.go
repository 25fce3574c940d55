package drive

import "io"

// Store is the storage path allocator: it owns the naming scheme for the
// managed root directory tree. No other component constructs disk paths.
type Store interface {
	// Root returns the managed root directory.
	Root() string

	// AllocateFolderDir returns <root>/<folderID> and ensures the
	// directory exists. Idempotent.
	AllocateFolderDir(folderID string) (string, error)

	// FilePath returns <folderDir>/<fileID>_<sanitized name>. The fileID
	// prefix keeps paths unique even for identical display names.
	FilePath(folderDir, fileID, name string) string

	// WriteFile streams r to path and returns the number of bytes
	// written. A partial file is removed on error.
	WriteFile(path string, r io.Reader) (int64, error)

	// Open opens a stored object for reading.
	Open(path string) (io.ReadCloser, error)

	// Rename moves a stored object. Used by rename and move, where the
	// caller must keep the record unchanged on failure.
	Rename(oldPath, newPath string) error

	// Remove deletes a single stored object. Missing objects are not an
	// error: the disk copy may have been removed out-of-band.
	Remove(path string) error

	// RemoveTree recursively deletes a folder directory.
	RemoveTree(path string) error

	// EraseAll removes everything under the managed root, keeping the
	// root directory itself.
	EraseAll() error
}
