package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileSystemVault is a filesystem-based implementation of the Vault
// interface. It stores archives in a flat directory plus a marker file:
//
//	<root>/
//	  archives/
//	    <name>   (backup archives)
//	  LATEST     (name of the most recent archive)
type FileSystemVault struct {
	name        string
	root        string
	archivesDir string
}

// NewFileSystemVault creates a new filesystem vault rooted at the given path.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	archivesDir := filepath.Join(root, "archives")
	if err := os.MkdirAll(archivesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archives directory: %w", err)
	}

	return &FileSystemVault{
		name:        name,
		root:        root,
		archivesDir: archivesDir,
	}, nil
}

// PutArchive stores an archive and updates the LATEST marker.
func (v *FileSystemVault) PutArchive(name string, r io.Reader, size int64) error {
	destPath := filepath.Join(v.archivesDir, name)

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("creating archive file: %w", err)
	}

	written, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(destPath)
		return fmt.Errorf("writing archive: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(destPath)
		return fmt.Errorf("closing archive: %w", err)
	}
	if written != size {
		os.Remove(destPath)
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}

	return os.WriteFile(filepath.Join(v.root, "LATEST"), []byte(name), 0644)
}

// GetArchive retrieves an archive by name and writes it to w.
func (v *FileSystemVault) GetArchive(name string, w io.Writer) error {
	f, err := os.Open(filepath.Join(v.archivesDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("archive not found: %s", name)
		}
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}
	return nil
}

// LatestArchive returns the name recorded in the LATEST marker, or ""
// if no archive has been stored.
func (v *FileSystemVault) LatestArchive() (string, error) {
	data, err := os.ReadFile(filepath.Join(v.root, "LATEST"))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading LATEST marker: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// ValidateSetup verifies that the vault directories are accessible.
func (v *FileSystemVault) ValidateSetup() error {
	info, err := os.Stat(v.archivesDir)
	if err != nil {
		return fmt.Errorf("vault not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault path is not a directory: %s", v.archivesDir)
	}
	return nil
}

// Compile-time check that FileSystemVault implements Vault
var _ Vault = (*FileSystemVault)(nil)
