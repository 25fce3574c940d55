package drive

import (
	"fmt"
	"strings"

	"minicloud/internal/model"
)

// RootFolderName is the name of the permanent bootstrap folder.
const RootFolderName = "root"

// Service is the orchestration layer for folder and file lifecycle
// operations. It coordinates the metadata database with the storage path
// allocator and records outcomes in the activity log.
//
// Consistency is best-effort: there is no two-phase commit between the
// filesystem and the database. Rename and move fail entirely when the disk
// operation fails; delete-type operations favor the record ("it's gone")
// over the disk and swallow cleanup errors into the activity log.
type Service struct {
	db     Database
	store  Store
	logger Logger
	clock  Clock
	idgen  IDGenerator
}

// NewService creates a Service with the provided dependencies.
func NewService(db Database, store Store, logger Logger, clock Clock, idgen IDGenerator) *Service {
	return &Service{
		db:     db,
		store:  store,
		logger: logger,
		clock:  clock,
		idgen:  idgen,
	}
}

// EnsureRootFolder creates the root folder if it does not exist.
// Called once at startup and again after a global erase. Idempotent:
// running it twice leaves exactly one root record.
func (s *Service) EnsureRootFolder() (*model.Folder, error) {
	existing, err := s.db.FindFolderByName(RootFolderName)
	if err != nil {
		return nil, fmt.Errorf("looking up root folder: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	folder, err := s.createFolder(RootFolderName)
	if err != nil {
		return nil, fmt.Errorf("bootstrapping root folder: %w", err)
	}

	s.logger.Info("root folder created", "id", folder.ID)
	return folder, nil
}

// RootFolder returns the root folder record.
func (s *Service) RootFolder() (*model.Folder, error) {
	folder, err := s.db.FindFolderByName(RootFolderName)
	if err != nil {
		return nil, fmt.Errorf("looking up root folder: %w", err)
	}
	if folder == nil {
		return nil, &NotFoundError{Msg: "not found"}
	}
	return folder, nil
}

// CreateFolder creates a folder and its backing directory.
// The name must be non-empty after trimming.
func (s *Service) CreateFolder(name string) (*model.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Msg: "name required"}
	}

	folder, err := s.createFolder(name)
	if err != nil {
		return nil, err
	}

	s.recordActivity("create_folder", name)
	return folder, nil
}

func (s *Service) createFolder(name string) (*model.Folder, error) {
	id := s.idgen.New()

	dir, err := s.store.AllocateFolderDir(id)
	if err != nil {
		return nil, &DiskError{Op: "creating folder directory", Err: err}
	}

	folder := &model.Folder{
		ID:        id,
		Name:      name,
		Path:      dir,
		CreatedAt: s.clock.Now(),
	}
	if err := s.db.InsertFolder(folder); err != nil {
		// Keep disk and record in lockstep: a directory without a
		// record would orphan future allocations.
		if rmErr := s.store.RemoveTree(dir); rmErr != nil {
			s.logger.Warn("removing directory after failed insert", "path", dir, "error", rmErr)
		}
		return nil, fmt.Errorf("inserting folder: %w", err)
	}

	return folder, nil
}

// ListFolders returns all folders ordered by name.
func (s *Service) ListFolders() ([]*model.Folder, error) {
	return s.db.ListFolders()
}

// GetFolder returns a folder by ID.
func (s *Service) GetFolder(id string) (*model.Folder, error) {
	folder, err := s.db.FindFolderByID(id)
	if err != nil {
		return nil, fmt.Errorf("finding folder: %w", err)
	}
	if folder == nil {
		return nil, &NotFoundError{Msg: "not found"}
	}
	return folder, nil
}

// DeleteFolder deletes an empty, non-root folder and its directory.
// Trashed files count as occupants: deletion is blocked while any file
// record references the folder. The directory removal is best-effort;
// a failure is logged and the record is deleted anyway.
func (s *Service) DeleteFolder(id string) error {
	folder, err := s.db.FindFolderByID(id)
	if err != nil {
		return fmt.Errorf("finding folder: %w", err)
	}
	if folder == nil {
		return &NotFoundError{Msg: "not found"}
	}
	if folder.Name == RootFolderName {
		return ErrRootFolder
	}

	count, err := s.db.CountFilesInFolder(id)
	if err != nil {
		return fmt.Errorf("counting files: %w", err)
	}
	if count > 0 {
		return &ConflictError{Count: count}
	}

	if err := s.store.RemoveTree(folder.Path); err != nil {
		s.logger.Warn("removing folder directory", "path", folder.Path, "error", err)
		s.recordActivity("delete_folder_disk_error", folder.Path)
	}

	if err := s.db.DeleteFolder(id); err != nil {
		return fmt.Errorf("deleting folder: %w", err)
	}

	s.recordActivity("delete_folder", id)
	return nil
}

// recordActivity appends an activity log entry. Logging is best-effort
// auxiliary telemetry: failures never surface to the caller.
func (s *Service) recordActivity(action, details string) {
	err := s.db.InsertLogEntry(&model.LogEntry{
		Action:    action,
		Details:   details,
		CreatedAt: s.clock.Now(),
	})
	if err != nil {
		s.logger.Warn("recording activity", "action", action, "error", err)
	}
}

// RecentLogs returns the most recent activity entries, newest first.
func (s *Service) RecentLogs(limit int) ([]*model.LogEntry, error) {
	return s.db.ListLogEntries(limit)
}
