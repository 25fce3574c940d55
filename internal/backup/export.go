package backup

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Export writes a zip archive to w containing the database snapshot at
// dbSnapshotPath (stored as files.db) and every object under storageRoot
// (stored under storage/, folder layout preserved). The archive streams
// straight to w, so it can feed an HTTP response without buffering.
func Export(w io.Writer, dbSnapshotPath, storageRoot string) error {
	zw := zip.NewWriter(w)

	if err := addFileToZip(zw, dbSnapshotPath, DBEntryName); err != nil {
		return fmt.Errorf("adding database snapshot: %w", err)
	}

	err := filepath.WalkDir(storageRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(storageRoot, path)
		if err != nil {
			return err
		}
		return addFileToZip(zw, path, StoragePrefix+filepath.ToSlash(rel))
	})
	if err != nil {
		return fmt.Errorf("walking storage tree: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return nil
}

func addFileToZip(zw *zip.Writer, filePath, zipPath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", filePath, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", filePath, err)
	}

	hdr, err := zip.FileInfoHeader(fi)
	if err != nil {
		return fmt.Errorf("building header for %s: %w", filePath, err)
	}
	hdr.Name = zipPath
	hdr.Method = zip.Deflate

	entry, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("creating entry %s: %w", zipPath, err)
	}

	if _, err := io.Copy(entry, f); err != nil {
		return fmt.Errorf("writing entry %s: %w", zipPath, err)
	}
	return nil
}
