package model

import "time"

// Folder represents a logical folder backed by a directory under the
// managed storage root. Exactly one folder is named "root"; it is created
// at bootstrap and can never be deleted.
type Folder struct {
	ID        string    // UUID
	Name      string    // Display name
	Path      string    // Absolute directory path under the managed root
	CreatedAt time.Time
}

// File represents a stored object inside a folder.
// Path is derived from the file ID and the sanitized display name, so two
// files may share a display name but never a path.
type File struct {
	ID        string // UUID
	Name      string // Sanitized display name
	FolderID  string // Foreign key to Folder
	Path      string // Absolute path on disk: <folder dir>/<id>_<name>
	MimeType  string
	Size      int64
	Trashed   bool // Soft-delete flag; disk object is kept while set
	CreatedAt time.Time
}

// FileInfo is a File joined with the name of its owning folder,
// as returned by listings.
type FileInfo struct {
	File
	FolderName string
}

// Setting is a key/value configuration row. Last write wins.
type Setting struct {
	Key   string
	Value string
}

// LogEntry is an append-only activity record. Entries are never mutated;
// only the global erase removes them.
type LogEntry struct {
	ID        int64 // Auto-increment
	Action    string
	Details   string
	CreatedAt time.Time
}
