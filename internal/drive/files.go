package drive

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"minicloud/internal/model"
)

// DefaultMimeType is recorded when the client does not declare one.
const DefaultMimeType = "application/octet-stream"

// ListFiles returns files matching the filter, newest first.
func (s *Service) ListFiles(filter FileFilter) ([]*model.FileInfo, error) {
	return s.db.ListFiles(filter)
}

// UploadFile stores the content of r as a new file in the given folder.
// The size is taken from the bytes actually written, never from
// client-declared headers. The display name is sanitized before the path
// is derived from it.
func (s *Service) UploadFile(folderID, name, mimeType string, r io.Reader) (*model.File, error) {
	file, err := s.storeFile(folderID, name, mimeType, r)
	if err != nil {
		return nil, err
	}

	s.recordActivity("upload", file.Name)
	return file, nil
}

// storeFile writes the content and inserts the record. Callers record
// their own activity entry so each logical operation logs exactly once.
func (s *Service) storeFile(folderID, name, mimeType string, r io.Reader) (*model.File, error) {
	if r == nil {
		return nil, &ValidationError{Msg: "no file"}
	}

	folder, err := s.db.FindFolderByID(folderID)
	if err != nil {
		return nil, fmt.Errorf("finding folder: %w", err)
	}
	if folder == nil {
		return nil, &NotFoundError{Msg: "folder not found"}
	}

	if mimeType == "" {
		mimeType = DefaultMimeType
	}

	id := s.idgen.New()
	path := s.store.FilePath(folder.Path, id, name)

	size, err := s.store.WriteFile(path, r)
	if err != nil {
		return nil, &DiskError{Op: "writing file", Err: err}
	}

	file := &model.File{
		ID:        id,
		Name:      displayName(path, id),
		FolderID:  folderID,
		Path:      path,
		MimeType:  mimeType,
		Size:      size,
		CreatedAt: s.clock.Now(),
	}
	if err := s.db.InsertFile(file); err != nil {
		if rmErr := s.store.Remove(path); rmErr != nil {
			s.logger.Warn("removing file after failed insert", "path", path, "error", rmErr)
		}
		return nil, fmt.Errorf("inserting file: %w", err)
	}

	return file, nil
}

// CreateTextFile creates a new text/plain file with the given content.
func (s *Service) CreateTextFile(folderID, filename, content string) (*model.File, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, &ValidationError{Msg: "filename required"}
	}

	file, err := s.storeFile(folderID, filename, "text/plain", strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	s.recordActivity("create_file", file.Name)
	return file, nil
}

// OpenFile returns a file record and a reader over its content.
// The caller must close the reader.
func (s *Service) OpenFile(id string) (*model.File, io.ReadCloser, error) {
	file, err := s.findFile(id)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.store.Open(file.Path)
	if err != nil {
		return nil, nil, &DiskError{Op: "opening file", Err: err}
	}

	s.recordActivity("download", file.Name)
	return file, rc, nil
}

// RenameFile gives a file a new display name and moves its disk object to
// the matching path within the same folder. The operation is atomic
// relative to the record: if the disk rename fails, the record is
// unchanged; if the record update fails, the disk rename is undone.
func (s *Service) RenameFile(id, newName string) (*model.File, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, &ValidationError{Msg: "name required"}
	}

	file, err := s.findFile(id)
	if err != nil {
		return nil, err
	}

	newPath := s.store.FilePath(filepath.Dir(file.Path), id, newName)
	if err := s.relocate(file, newPath, file.FolderID, displayName(newPath, id)); err != nil {
		return nil, err
	}

	s.recordActivity("rename", file.Name)
	return file, nil
}

// MoveFile moves a file to another folder, keeping its display name.
// Same atomicity discipline as RenameFile.
func (s *Service) MoveFile(id, destFolderID string) (*model.File, error) {
	file, err := s.findFile(id)
	if err != nil {
		return nil, err
	}

	dest, err := s.db.FindFolderByID(destFolderID)
	if err != nil {
		return nil, fmt.Errorf("finding destination folder: %w", err)
	}
	if dest == nil {
		return nil, &NotFoundError{Msg: "destination folder not found"}
	}

	newPath := s.store.FilePath(dest.Path, id, file.Name)
	if err := s.relocate(file, newPath, destFolderID, file.Name); err != nil {
		return nil, err
	}

	s.recordActivity("move", file.Name)
	return file, nil
}

// relocate renames the disk object to newPath and updates the record's
// name, folder and path, undoing the disk rename if the record update
// fails. The file struct is updated in place on success.
func (s *Service) relocate(file *model.File, newPath, folderID, name string) error {
	oldPath := file.Path
	if newPath == oldPath && folderID == file.FolderID {
		return nil
	}

	if err := s.store.Rename(oldPath, newPath); err != nil {
		return &DiskError{Op: "renaming file", Err: err}
	}

	var err error
	if folderID != file.FolderID {
		err = s.db.UpdateFileLocation(file.ID, folderID, newPath)
	} else {
		err = s.db.UpdateFileName(file.ID, name, newPath)
	}
	if err != nil {
		if undoErr := s.store.Rename(newPath, oldPath); undoErr != nil {
			s.logger.Error("undoing disk rename", "path", newPath, "error", undoErr)
		}
		return fmt.Errorf("updating file record: %w", err)
	}

	file.Path = newPath
	file.FolderID = folderID
	file.Name = name
	return nil
}

// TrashFile marks a file as trashed. Trashing an already-trashed file is
// a no-op success.
func (s *Service) TrashFile(id string) error {
	return s.setTrashed(id, true, "trash")
}

// RestoreFile clears the trashed flag. Idempotent like TrashFile.
func (s *Service) RestoreFile(id string) error {
	return s.setTrashed(id, false, "restore")
}

func (s *Service) setTrashed(id string, trashed bool, action string) error {
	file, err := s.findFile(id)
	if err != nil {
		return err
	}
	if file.Trashed == trashed {
		return nil
	}

	if err := s.db.UpdateFileTrashed(id, trashed); err != nil {
		return fmt.Errorf("updating trashed flag: %w", err)
	}

	s.recordActivity(action, file.Name)
	return nil
}

// DeleteFilePermanent removes the disk object (best-effort) and then the
// record unconditionally. A stray disk error must not block the record
// deletion: an orphaned disk file is the accepted failure mode, surfaced
// only through the activity log.
func (s *Service) DeleteFilePermanent(id string) error {
	file, err := s.findFile(id)
	if err != nil {
		return err
	}

	if err := s.store.Remove(file.Path); err != nil {
		s.logger.Warn("removing file from disk", "path", file.Path, "error", err)
		s.recordActivity("delete_file_disk_error", file.Path)
	}

	if err := s.db.DeleteFile(id); err != nil {
		return fmt.Errorf("deleting file record: %w", err)
	}

	s.recordActivity("delete_file", file.Name)
	return nil
}

func (s *Service) findFile(id string) (*model.File, error) {
	file, err := s.db.FindFileByID(id)
	if err != nil {
		return nil, fmt.Errorf("finding file: %w", err)
	}
	if file == nil {
		return nil, &NotFoundError{Msg: "not found"}
	}
	return file, nil
}

// displayName recovers the stored display name from an allocated path by
// stripping the "<id>_" prefix. The allocator owns the naming scheme; this
// is its inverse.
func displayName(path, id string) string {
	return strings.TrimPrefix(filepath.Base(path), id+"_")
}
