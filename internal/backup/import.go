package backup

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Import restores an archive produced by Export: the files.db entry
// replaces the database file at dbPath, and the storage/ entries replace
// the managed tree under storageRoot (which is cleared first).
//
// The caller must have closed the database handle before calling this and
// must reopen it afterwards. A crash partway leaves a partially imported
// state; that is the accepted risk of the best-effort, single-node design.
func Import(archivePath, dbPath, storageRoot string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer zr.Close()

	// Only clear the tree when the archive looks like one of ours.
	if err := validateArchive(&zr.Reader); err != nil {
		return err
	}

	if err := clearDir(storageRoot); err != nil {
		return fmt.Errorf("clearing storage root: %w", err)
	}

	for _, entry := range zr.File {
		switch {
		case entry.Name == DBEntryName:
			if err := extractEntry(entry, dbPath); err != nil {
				return fmt.Errorf("restoring database: %w", err)
			}
		case strings.HasPrefix(entry.Name, StoragePrefix):
			rel := strings.TrimPrefix(entry.Name, StoragePrefix)
			dest, err := securePath(storageRoot, rel)
			if err != nil {
				return err
			}
			if err := extractEntry(entry, dest); err != nil {
				return fmt.Errorf("restoring %s: %w", entry.Name, err)
			}
		}
		// Unknown entries are skipped.
	}

	return nil
}

func validateArchive(zr *zip.Reader) error {
	for _, entry := range zr.File {
		if entry.Name == DBEntryName {
			return nil
		}
	}
	return fmt.Errorf("archive has no %s entry", DBEntryName)
}

// securePath joins rel onto root, rejecting entries that would escape it
// (zip-slip).
func securePath(root, rel string) (string, error) {
	dest := filepath.Join(root, filepath.FromSlash(rel))
	if !strings.HasPrefix(dest, filepath.Clean(root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry escapes storage root: %s", rel)
	}
	return dest, nil
}

func extractEntry(entry *zip.File, dest string) error {
	if entry.FileInfo().IsDir() {
		return os.MkdirAll(dest, 0755)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	rc, err := entry.Open()
	if err != nil {
		return fmt.Errorf("opening entry: %w", err)
	}
	defer rc.Close()

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}

	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		os.Remove(dest)
		return fmt.Errorf("writing file: %w", err)
	}
	return f.Close()
}

func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(dir, 0755)
		}
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}
