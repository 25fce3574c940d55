package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"minicloud/internal/database/migrations"
	"minicloud/internal/drive"
	"minicloud/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements the drive.Database interface using SQLite.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	return &SQLiteDatabase{db: db, path: path}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{db: db, path: ""}
}

// OpenConnection opens and configures a SQLite connection with appropriate
// PRAGMAs. Exported for tools and tests that need a raw connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Wait for the write lock instead of failing immediately when
	// concurrent requests hit the same database.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// Folder operations

func (s *SQLiteDatabase) FindFolderByID(id string) (*model.Folder, error) {
	row := s.db.QueryRowContext(context.Background(),
		`SELECT id, name, path, created_at FROM folders WHERE id = ?`, id)
	return scanFolder(row)
}

func (s *SQLiteDatabase) FindFolderByName(name string) (*model.Folder, error) {
	row := s.db.QueryRowContext(context.Background(),
		`SELECT id, name, path, created_at FROM folders WHERE name = ? LIMIT 1`, name)
	return scanFolder(row)
}

func scanFolder(row *sql.Row) (*model.Folder, error) {
	var f model.Folder
	err := row.Scan(&f.ID, &f.Name, &f.Path, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("scanning folder: %w", err)
	}
	return &f, nil
}

func (s *SQLiteDatabase) ListFolders() ([]*model.Folder, error) {
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT id, name, path, created_at FROM folders ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	defer rows.Close()

	var folders []*model.Folder
	for rows.Next() {
		var f model.Folder
		if err := rows.Scan(&f.ID, &f.Name, &f.Path, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning folder: %w", err)
		}
		folders = append(folders, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating folders: %w", err)
	}
	return folders, nil
}

func (s *SQLiteDatabase) InsertFolder(f *model.Folder) error {
	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO folders (id, name, path, created_at) VALUES (?, ?, ?, ?)`,
		f.ID, f.Name, f.Path, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting folder: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) DeleteFolder(id string) error {
	_, err := s.db.ExecContext(context.Background(),
		`DELETE FROM folders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting folder: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) CountFilesInFolder(folderID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM files WHERE folder_id = ?`, folderID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting files: %w", err)
	}
	return count, nil
}

// File operations

const fileColumns = `id, filename, folder_id, path, mimetype, size, trashed, created_at`

func (s *SQLiteDatabase) FindFileByID(id string) (*model.File, error) {
	row := s.db.QueryRowContext(context.Background(),
		`SELECT `+fileColumns+` FROM files WHERE id = ?`, id)

	var f model.File
	err := row.Scan(&f.ID, &f.Name, &f.FolderID, &f.Path, &f.MimeType, &f.Size, &f.Trashed, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("scanning file: %w", err)
	}
	return &f, nil
}

// ListFiles returns files matching the filter, newest first, joined with
// the owning folder's name. Filters are conjunctive; the query matches
// case-insensitively against both the file and folder names.
func (s *SQLiteDatabase) ListFiles(filter drive.FileFilter) ([]*model.FileInfo, error) {
	query := `SELECT f.id, f.filename, f.folder_id, f.path, f.mimetype, f.size, f.trashed, f.created_at,
	                 COALESCE(fo.name, '')
	          FROM files f LEFT JOIN folders fo ON f.folder_id = fo.id`

	var conds []string
	var args []any
	if filter.FolderID != "" {
		conds = append(conds, "f.folder_id = ?")
		args = append(args, filter.FolderID)
	}
	if filter.Trashed != nil {
		conds = append(conds, "f.trashed = ?")
		args = append(args, *filter.Trashed)
	}
	if filter.Query != "" {
		like := "%" + escapeLike(strings.ToLower(filter.Query)) + "%"
		conds = append(conds, `(LOWER(f.filename) LIKE ? ESCAPE '\' OR LOWER(fo.name) LIKE ? ESCAPE '\')`)
		args = append(args, like, like)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY f.created_at DESC"

	rows, err := s.db.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	defer rows.Close()

	var files []*model.FileInfo
	for rows.Next() {
		var fi model.FileInfo
		err := rows.Scan(&fi.ID, &fi.Name, &fi.FolderID, &fi.Path, &fi.MimeType,
			&fi.Size, &fi.Trashed, &fi.CreatedAt, &fi.FolderName)
		if err != nil {
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		files = append(files, &fi)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating files: %w", err)
	}
	return files, nil
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}

func (s *SQLiteDatabase) InsertFile(f *model.File) error {
	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO files (id, filename, folder_id, path, mimetype, size, trashed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.Name, f.FolderID, f.Path, f.MimeType, f.Size, f.Trashed, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting file: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) UpdateFileName(id, name, path string) error {
	return s.updateFile(id,
		`UPDATE files SET filename = ?, path = ? WHERE id = ?`, name, path, id)
}

func (s *SQLiteDatabase) UpdateFileLocation(id, folderID, path string) error {
	return s.updateFile(id,
		`UPDATE files SET folder_id = ?, path = ? WHERE id = ?`, folderID, path, id)
}

func (s *SQLiteDatabase) UpdateFileTrashed(id string, trashed bool) error {
	return s.updateFile(id,
		`UPDATE files SET trashed = ? WHERE id = ?`, trashed, id)
}

// updateFile runs a single-row UPDATE and reports a missing row as an
// error: callers look the file up first, so an absent row here means the
// record vanished mid-operation.
func (s *SQLiteDatabase) updateFile(id, query string, args ...any) error {
	res, err := s.db.ExecContext(context.Background(), query, args...)
	if err != nil {
		return fmt.Errorf("updating file: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("file %s no longer exists", id)
	}
	return nil
}

func (s *SQLiteDatabase) DeleteFile(id string) error {
	_, err := s.db.ExecContext(context.Background(),
		`DELETE FROM files WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

// Activity log operations

func (s *SQLiteDatabase) InsertLogEntry(e *model.LogEntry) error {
	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO logs (action, details, created_at) VALUES (?, ?, ?)`,
		e.Action, e.Details, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting log entry: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) ListLogEntries(limit int) ([]*model.LogEntry, error) {
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT id, action, details, created_at FROM logs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing log entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.LogEntry
	for rows.Next() {
		var e model.LogEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning log entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating log entries: %w", err)
	}
	return entries, nil
}

// Settings operations

func (s *SQLiteDatabase) UpsertSetting(key, value string) error {
	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("upserting setting: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) GetSettings() (map[string]string, error) {
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning setting: %w", err)
		}
		settings[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating settings: %w", err)
	}
	return settings, nil
}

// EraseAll deletes every file, folder and log record in a single
// transaction. Settings rows are kept. Files go first so the folder
// foreign key is never violated.
func (s *SQLiteDatabase) EraseAll() error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM files`,
		`DELETE FROM folders`,
		`DELETE FROM logs`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("erasing records: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// MigrateUp brings the schema to the latest version.
func (s *SQLiteDatabase) MigrateUp() error {
	return migrations.MigrateUp(s.db)
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	_, err := s.db.Exec("VACUUM INTO ?", destPath)
	if err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteDatabase implements drive.Database
var _ drive.Database = (*SQLiteDatabase)(nil)
