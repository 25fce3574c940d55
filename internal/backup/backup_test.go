package backup_test

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"minicloud/internal/backup"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	src := t.TempDir()
	dbPath := filepath.Join(src, "files.db")
	storageRoot := filepath.Join(src, "storage")
	writeFile(t, dbPath, "db bytes")
	writeFile(t, filepath.Join(storageRoot, "folder-1", "file-1_a.txt"), "hello")
	writeFile(t, filepath.Join(storageRoot, "folder-2", "file-2_b.txt"), "world")

	var buf bytes.Buffer
	if err := backup.Export(&buf, dbPath, storageRoot); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	archivePath := filepath.Join(t.TempDir(), "backup.zip")
	if err := os.WriteFile(archivePath, buf.Bytes(), 0644); err != nil {
		t.Fatalf("writing archive: %v", err)
	}

	dst := t.TempDir()
	dstDB := filepath.Join(dst, "files.db")
	dstStorage := filepath.Join(dst, "storage")
	// Pre-existing state must be replaced, not merged.
	writeFile(t, filepath.Join(dstStorage, "stale", "old.txt"), "stale")

	if err := backup.Import(archivePath, dstDB, dstStorage); err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	t.Run("database restored", func(t *testing.T) {
		content, err := os.ReadFile(dstDB)
		if err != nil {
			t.Fatalf("reading restored db: %v", err)
		}
		if string(content) != "db bytes" {
			t.Errorf("db content = %q, want %q", content, "db bytes")
		}
	})

	t.Run("storage tree restored", func(t *testing.T) {
		content, err := os.ReadFile(filepath.Join(dstStorage, "folder-1", "file-1_a.txt"))
		if err != nil {
			t.Fatalf("reading restored file: %v", err)
		}
		if string(content) != "hello" {
			t.Errorf("content = %q, want %q", content, "hello")
		}
	})

	t.Run("stale state removed", func(t *testing.T) {
		if _, err := os.Stat(filepath.Join(dstStorage, "stale")); !os.IsNotExist(err) {
			t.Error("stale directory survived the import")
		}
	})
}

func TestExport_EntryLayout(t *testing.T) {
	src := t.TempDir()
	dbPath := filepath.Join(src, "files.db")
	storageRoot := filepath.Join(src, "storage")
	writeFile(t, dbPath, "db")
	writeFile(t, filepath.Join(storageRoot, "f1", "a.txt"), "x")

	var buf bytes.Buffer
	if err := backup.Export(&buf, dbPath, storageRoot); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("reading archive: %v", err)
	}

	names := make(map[string]bool)
	for _, entry := range zr.File {
		names[entry.Name] = true
	}
	if !names[backup.DBEntryName] {
		t.Errorf("archive missing %s entry", backup.DBEntryName)
	}
	if !names["storage/f1/a.txt"] {
		t.Errorf("archive missing storage entry, got %v", names)
	}
}

func TestImport_RejectsForeignArchive(t *testing.T) {
	archivePath := filepath.Join(t.TempDir(), "foreign.zip")
	f, err := os.Create(archivePath)
	if err != nil {
		t.Fatalf("creating archive: %v", err)
	}
	zw := zip.NewWriter(f)
	entry, _ := zw.Create("unrelated.txt")
	entry.Write([]byte("x"))
	zw.Close()
	f.Close()

	dst := t.TempDir()
	storageRoot := filepath.Join(dst, "storage")
	writeFile(t, filepath.Join(storageRoot, "f1", "a.txt"), "keep me")

	err = backup.Import(archivePath, filepath.Join(dst, "files.db"), storageRoot)
	if err == nil {
		t.Fatal("Import() of foreign archive error = nil, want error")
	}

	// The existing tree must be untouched.
	if _, statErr := os.Stat(filepath.Join(storageRoot, "f1", "a.txt")); statErr != nil {
		t.Errorf("existing tree was cleared: %v", statErr)
	}
}

func TestImport_RejectsZipSlip(t *testing.T) {
	archivePath := filepath.Join(t.TempDir(), "evil.zip")
	f, err := os.Create(archivePath)
	if err != nil {
		t.Fatalf("creating archive: %v", err)
	}
	zw := zip.NewWriter(f)
	db, _ := zw.Create(backup.DBEntryName)
	db.Write([]byte("db"))
	evil, _ := zw.Create("storage/../../escape.txt")
	evil.Write([]byte("x"))
	zw.Close()
	f.Close()

	dst := t.TempDir()
	err = backup.Import(archivePath, filepath.Join(dst, "files.db"), filepath.Join(dst, "storage"))
	if err == nil {
		t.Fatal("Import() with traversal entry error = nil, want error")
	}
}
