package drive

import "minicloud/internal/model"

// FileFilter narrows a file listing. Zero values mean "no filter";
// supplied filters are conjunctive.
type FileFilter struct {
	FolderID string // Only files in this folder
	Query    string // Case-insensitive substring match on file or folder name
	Trashed  *bool  // Only trashed / only active files
}

// Database provides an interface for metadata storage operations.
// Find methods return (nil, nil) when the record does not exist;
// translating that into a NotFoundError is the service's job.
type Database interface {
	// Folder operations

	// FindFolderByID returns a folder by ID.
	FindFolderByID(id string) (*model.Folder, error)

	// FindFolderByName returns the first folder with the given name.
	// Used by the root-folder bootstrap.
	FindFolderByName(name string) (*model.Folder, error)

	// ListFolders returns all folders ordered by name.
	ListFolders() ([]*model.Folder, error)

	// InsertFolder creates a new folder record.
	InsertFolder(f *model.Folder) error

	// DeleteFolder removes a folder record. It does not check emptiness.
	DeleteFolder(id string) error

	// CountFilesInFolder returns the number of files referencing the
	// folder, trashed files included.
	CountFilesInFolder(folderID string) (int64, error)

	// File operations

	// FindFileByID returns a file by ID.
	FindFileByID(id string) (*model.File, error)

	// ListFiles returns files matching the filter, newest first,
	// joined with their owning folder's name.
	ListFiles(filter FileFilter) ([]*model.FileInfo, error)

	// InsertFile creates a new file record.
	InsertFile(f *model.File) error

	// UpdateFileName sets a file's display name and disk path.
	UpdateFileName(id, name, path string) error

	// UpdateFileLocation sets a file's owning folder and disk path.
	UpdateFileLocation(id, folderID, path string) error

	// UpdateFileTrashed flips the soft-delete flag.
	UpdateFileTrashed(id string, trashed bool) error

	// DeleteFile removes a file record unconditionally.
	DeleteFile(id string) error

	// Activity log operations

	// InsertLogEntry appends an activity record.
	InsertLogEntry(e *model.LogEntry) error

	// ListLogEntries returns the most recent entries, newest first.
	ListLogEntries(limit int) ([]*model.LogEntry, error)

	// Settings operations

	// UpsertSetting replaces or inserts a key/value pair.
	UpsertSetting(key, value string) error

	// GetSettings returns all settings.
	GetSettings() (map[string]string, error)

	// EraseAll deletes every folder, file and log record in one
	// transaction. Settings are kept.
	EraseAll() error

	// BackupTo writes a consistent snapshot of the database to destPath.
	BackupTo(destPath string) error

	// Close closes the database connection.
	Close() error
}
