package drive_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"minicloud/internal/drive"
	"minicloud/internal/testutil"
)

func TestService_UploadFile(t *testing.T) {
	t.Run("round-trips content", func(t *testing.T) {
		svc := newTestService(t)
		folder, _ := svc.CreateFolder("Docs")

		file, err := svc.UploadFile(folder.ID, "report.txt", "text/plain", strings.NewReader("hello"))
		if err != nil {
			t.Fatalf("UploadFile() error = %v", err)
		}
		if file.Name != "report.txt" {
			t.Errorf("name = %q, want %q", file.Name, "report.txt")
		}
		if file.Size != 5 {
			t.Errorf("size = %d, want 5", file.Size)
		}

		got, rc, err := svc.OpenFile(file.ID)
		if err != nil {
			t.Fatalf("OpenFile() error = %v", err)
		}
		defer rc.Close()

		content, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("reading content: %v", err)
		}
		if string(content) != "hello" {
			t.Errorf("content = %q, want %q", content, "hello")
		}
		if got.Name != "report.txt" {
			t.Errorf("OpenFile() name = %q, want %q", got.Name, "report.txt")
		}
	})

	t.Run("rejects nil content", func(t *testing.T) {
		svc := newTestService(t)
		folder, _ := svc.CreateFolder("Docs")

		_, err := svc.UploadFile(folder.ID, "report.txt", "", nil)
		var validation *drive.ValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("UploadFile() error = %v, want ValidationError", err)
		}
	})

	t.Run("rejects missing folder", func(t *testing.T) {
		svc := newTestService(t)

		_, err := svc.UploadFile("missing", "report.txt", "", strings.NewReader("x"))
		var notFound *drive.NotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("UploadFile() error = %v, want NotFoundError", err)
		}
		if notFound.Msg != "folder not found" {
			t.Errorf("message = %q, want %q", notFound.Msg, "folder not found")
		}
	})

	t.Run("defaults the mime type", func(t *testing.T) {
		svc := newTestService(t)
		folder, _ := svc.CreateFolder("Docs")

		file, err := svc.UploadFile(folder.ID, "blob", "", strings.NewReader("x"))
		if err != nil {
			t.Fatalf("UploadFile() error = %v", err)
		}
		if file.MimeType != drive.DefaultMimeType {
			t.Errorf("mime type = %q, want %q", file.MimeType, drive.DefaultMimeType)
		}
	})

	t.Run("path contains the file id", func(t *testing.T) {
		svc := newTestService(t)
		folder, _ := svc.CreateFolder("Docs")

		file, err := svc.UploadFile(folder.ID, "report.txt", "", strings.NewReader("x"))
		if err != nil {
			t.Fatalf("UploadFile() error = %v", err)
		}
		if !strings.HasPrefix(filepath.Base(file.Path), file.ID+"_") {
			t.Errorf("path base = %q, want %q prefix", filepath.Base(file.Path), file.ID+"_")
		}
	})
}

func TestService_CreateTextFile(t *testing.T) {
	svc := newTestService(t)
	folder, _ := svc.CreateFolder("Docs")

	file, err := svc.CreateTextFile(folder.ID, "note.txt", "some text")
	if err != nil {
		t.Fatalf("CreateTextFile() error = %v", err)
	}
	if file.MimeType != "text/plain" {
		t.Errorf("mime type = %q, want text/plain", file.MimeType)
	}
	if file.Size != int64(len("some text")) {
		t.Errorf("size = %d, want %d", file.Size, len("some text"))
	}

	t.Run("rejects empty filename", func(t *testing.T) {
		_, err := svc.CreateTextFile(folder.ID, "  ", "content")
		var validation *drive.ValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("CreateTextFile() error = %v, want ValidationError", err)
		}
	})

	t.Run("records a single activity entry", func(t *testing.T) {
		logs, err := svc.RecentLogs(50)
		if err != nil {
			t.Fatalf("RecentLogs() error = %v", err)
		}

		var created, uploaded int
		for _, entry := range logs {
			switch {
			case entry.Action == "create_file" && entry.Details == "note.txt":
				created++
			case entry.Action == "upload" && entry.Details == "note.txt":
				uploaded++
			}
		}
		if created != 1 {
			t.Errorf("create_file entries = %d, want 1", created)
		}
		if uploaded != 0 {
			t.Errorf("upload entries = %d, want 0", uploaded)
		}
	})
}

func TestService_RenameFile(t *testing.T) {
	t.Run("renames record and disk object", func(t *testing.T) {
		svc := newTestService(t)
		folder, _ := svc.CreateFolder("Docs")
		file, _ := svc.UploadFile(folder.ID, "old.txt", "", strings.NewReader("x"))
		oldPath := file.Path

		renamed, err := svc.RenameFile(file.ID, "new.txt")
		if err != nil {
			t.Fatalf("RenameFile() error = %v", err)
		}
		if renamed.Name != "new.txt" {
			t.Errorf("name = %q, want %q", renamed.Name, "new.txt")
		}

		if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
			t.Errorf("old path still exists: %s", oldPath)
		}
		if _, err := os.Stat(renamed.Path); err != nil {
			t.Errorf("new path missing: %v", err)
		}
	})

	t.Run("sanitizes traversal attempts", func(t *testing.T) {
		svc := newTestService(t)
		folder, _ := svc.CreateFolder("Docs")
		file, _ := svc.UploadFile(folder.ID, "safe.txt", "", strings.NewReader("x"))

		renamed, err := svc.RenameFile(file.ID, "../../etc/passwd")
		if err != nil {
			t.Fatalf("RenameFile() error = %v", err)
		}
		if filepath.Dir(renamed.Path) != folder.Path {
			t.Errorf("renamed path escaped the folder: %s", renamed.Path)
		}
		if renamed.Name != "passwd" {
			t.Errorf("name = %q, want %q", renamed.Name, "passwd")
		}
	})

	t.Run("rejects empty name", func(t *testing.T) {
		svc := newTestService(t)
		folder, _ := svc.CreateFolder("Docs")
		file, _ := svc.UploadFile(folder.ID, "a.txt", "", strings.NewReader("x"))

		_, err := svc.RenameFile(file.ID, " ")
		var validation *drive.ValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("RenameFile() error = %v, want ValidationError", err)
		}
	})

	t.Run("record unchanged when disk rename fails", func(t *testing.T) {
		db := testutil.NewTestDatabase(t)
		store := &failingRenameStore{Store: testutil.NewTestStore(t)}
		svc := drive.NewService(db, store, drive.NewNopLogger(), testutil.FixedClock(), testutil.NewStubIDGenerator())

		folder, _ := svc.CreateFolder("Docs")
		file, _ := svc.UploadFile(folder.ID, "a.txt", "", strings.NewReader("x"))
		store.fail = true

		_, err := svc.RenameFile(file.ID, "b.txt")
		var diskErr *drive.DiskError
		if !errors.As(err, &diskErr) {
			t.Fatalf("RenameFile() error = %v, want DiskError", err)
		}

		got, findErr := db.FindFileByID(file.ID)
		if findErr != nil {
			t.Fatalf("FindFileByID() error = %v", findErr)
		}
		if got.Name != "a.txt" {
			t.Errorf("record name = %q, want unchanged %q", got.Name, "a.txt")
		}
		if got.Path != file.Path {
			t.Errorf("record path = %q, want unchanged %q", got.Path, file.Path)
		}
	})
}

// failingRenameStore fails Rename on demand, leaving all other
// operations on the real disk store.
type failingRenameStore struct {
	drive.Store
	fail bool
}

func (s *failingRenameStore) Rename(oldPath, newPath string) error {
	if s.fail {
		return errors.New("disk full")
	}
	return s.Store.Rename(oldPath, newPath)
}

func TestService_MoveFile(t *testing.T) {
	t.Run("moves to another folder", func(t *testing.T) {
		svc := newTestService(t)
		src, _ := svc.CreateFolder("Src")
		dst, _ := svc.CreateFolder("Dst")
		file, _ := svc.UploadFile(src.ID, "a.txt", "", strings.NewReader("x"))
		oldPath := file.Path

		moved, err := svc.MoveFile(file.ID, dst.ID)
		if err != nil {
			t.Fatalf("MoveFile() error = %v", err)
		}
		if moved.FolderID != dst.ID {
			t.Errorf("folder = %q, want %q", moved.FolderID, dst.ID)
		}
		if filepath.Dir(moved.Path) != dst.Path {
			t.Errorf("path = %q, want inside %q", moved.Path, dst.Path)
		}
		if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
			t.Errorf("old path still exists: %s", oldPath)
		}
	})

	t.Run("missing destination leaves everything unchanged", func(t *testing.T) {
		svc := newTestService(t)
		src, _ := svc.CreateFolder("Src")
		file, _ := svc.UploadFile(src.ID, "a.txt", "", strings.NewReader("x"))

		_, err := svc.MoveFile(file.ID, "missing")
		var notFound *drive.NotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("MoveFile() error = %v, want NotFoundError", err)
		}
		if notFound.Msg != "destination folder not found" {
			t.Errorf("message = %q, want %q", notFound.Msg, "destination folder not found")
		}

		if _, err := os.Stat(file.Path); err != nil {
			t.Errorf("original disk object gone: %v", err)
		}
	})
}

func TestService_TrashRestore(t *testing.T) {
	svc := newTestService(t)
	folder, _ := svc.CreateFolder("Docs")
	file, _ := svc.UploadFile(folder.ID, "a.txt", "", strings.NewReader("x"))

	if err := svc.TrashFile(file.ID); err != nil {
		t.Fatalf("TrashFile() error = %v", err)
	}

	t.Run("trashing keeps the disk object", func(t *testing.T) {
		if _, err := os.Stat(file.Path); err != nil {
			t.Errorf("disk object gone after trash: %v", err)
		}
	})

	t.Run("trashing twice is a no-op", func(t *testing.T) {
		if err := svc.TrashFile(file.ID); err != nil {
			t.Errorf("second TrashFile() error = %v, want nil", err)
		}
	})

	t.Run("restore clears the flag", func(t *testing.T) {
		if err := svc.RestoreFile(file.ID); err != nil {
			t.Fatalf("RestoreFile() error = %v", err)
		}

		trashed := true
		files, err := svc.ListFiles(drive.FileFilter{Trashed: &trashed})
		if err != nil {
			t.Fatalf("ListFiles() error = %v", err)
		}
		if len(files) != 0 {
			t.Errorf("trashed count = %d, want 0", len(files))
		}
	})
}

func TestService_DeleteFilePermanent(t *testing.T) {
	t.Run("removes disk object and record", func(t *testing.T) {
		svc := newTestService(t)
		folder, _ := svc.CreateFolder("Docs")
		file, _ := svc.UploadFile(folder.ID, "a.txt", "", strings.NewReader("x"))

		if err := svc.DeleteFilePermanent(file.ID); err != nil {
			t.Fatalf("DeleteFilePermanent() error = %v", err)
		}

		if _, err := os.Stat(file.Path); !os.IsNotExist(err) {
			t.Errorf("disk object still exists: %s", file.Path)
		}
		_, _, err := svc.OpenFile(file.ID)
		var notFound *drive.NotFoundError
		if !errors.As(err, &notFound) {
			t.Errorf("OpenFile() after delete error = %v, want NotFoundError", err)
		}
	})

	t.Run("record deleted even when disk object is already gone", func(t *testing.T) {
		svc := newTestService(t)
		folder, _ := svc.CreateFolder("Docs")
		file, _ := svc.UploadFile(folder.ID, "a.txt", "", strings.NewReader("x"))

		// Simulate an out-of-band removal.
		if err := os.Remove(file.Path); err != nil {
			t.Fatalf("removing disk object: %v", err)
		}

		if err := svc.DeleteFilePermanent(file.ID); err != nil {
			t.Fatalf("DeleteFilePermanent() error = %v", err)
		}
	})
}

func TestService_ListFiles(t *testing.T) {
	svc := newTestService(t)
	docs, _ := svc.CreateFolder("Docs")
	pics, _ := svc.CreateFolder("Pictures")
	a, _ := svc.UploadFile(docs.ID, "report.txt", "", strings.NewReader("x"))
	b, _ := svc.UploadFile(pics.ID, "holiday.jpg", "", strings.NewReader("x"))
	_ = svc.TrashFile(b.ID)

	t.Run("filters by folder", func(t *testing.T) {
		files, err := svc.ListFiles(drive.FileFilter{FolderID: docs.ID})
		if err != nil {
			t.Fatalf("ListFiles() error = %v", err)
		}
		if len(files) != 1 || files[0].ID != a.ID {
			t.Errorf("got %d files, want exactly [%s]", len(files), a.ID)
		}
		if files[0].FolderName != "Docs" {
			t.Errorf("folder name = %q, want Docs", files[0].FolderName)
		}
	})

	t.Run("filters by trashed", func(t *testing.T) {
		trashed := true
		files, err := svc.ListFiles(drive.FileFilter{Trashed: &trashed})
		if err != nil {
			t.Fatalf("ListFiles() error = %v", err)
		}
		if len(files) != 1 || files[0].ID != b.ID {
			t.Errorf("got %d trashed files, want exactly [%s]", len(files), b.ID)
		}
	})

	t.Run("query matches file name case-insensitively", func(t *testing.T) {
		files, err := svc.ListFiles(drive.FileFilter{Query: "REPORT"})
		if err != nil {
			t.Fatalf("ListFiles() error = %v", err)
		}
		if len(files) != 1 || files[0].ID != a.ID {
			t.Errorf("got %d files for query, want exactly [%s]", len(files), a.ID)
		}
	})

	t.Run("query matches folder name", func(t *testing.T) {
		files, err := svc.ListFiles(drive.FileFilter{Query: "pictures"})
		if err != nil {
			t.Fatalf("ListFiles() error = %v", err)
		}
		if len(files) != 1 || files[0].ID != b.ID {
			t.Errorf("got %d files for folder query, want exactly [%s]", len(files), b.ID)
		}
	})
}
