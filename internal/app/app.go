package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"minicloud/internal/backup"
	"minicloud/internal/config"
	"minicloud/internal/database"
	"minicloud/internal/drive"
	"minicloud/internal/encryption"
	"minicloud/internal/model"
	"minicloud/internal/search"
	"minicloud/internal/storage"
	"minicloud/internal/vault"
)

// App constructs all dependencies from config and owns their lifecycle.
// It is the layer between the CLI / HTTP server and the drive service.
//
// The database handle is swapped during a backup import; mu guards only
// that swap. Entity mutations are deliberately not serialized across
// requests (last write wins).
type App struct {
	cfg       *config.Config
	store     *storage.DiskStore
	encryptor backup.Encryptor
	vault     vault.Vault // nil when no vault is configured
	fanout    *search.Fanout
	logger    drive.Logger
	logFile   *os.File
	clock     drive.Clock
	idgen     drive.IDGenerator
	startedAt time.Time

	mu      sync.RWMutex
	db      *database.SQLiteDatabase
	service *drive.Service
}

// New creates a fully wired App from the given config. The caller must
// call Close when done.
func New(cfg *config.Config) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405Z")
	slogger, logFile, err := newLogger(cfg.LogDir, runID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	store, err := storage.NewDiskStore(cfg.StorageRoot())
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating disk store: %w", err)
	}

	db, err := database.NewDatabaseFromConfig(cfg)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.MigrateUp(); err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	var v vault.Vault
	if len(cfg.Vaults) > 0 {
		v, err = vault.NewVaultFromConfig(context.Background(), cfg.Vaults[0])
		if err != nil {
			db.Close()
			logFile.Close()
			return nil, fmt.Errorf("creating vault: %w", err)
		}
	}

	clock := drive.RealClock{}
	idgen := drive.UUIDGenerator{}
	svc := drive.NewService(db, store, logger, clock, idgen)

	if _, err := svc.EnsureRootFolder(); err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("ensuring root folder: %w", err)
	}

	a := &App{
		cfg:       cfg,
		store:     store,
		encryptor: enc,
		vault:     v,
		logger:    logger,
		logFile:   logFile,
		clock:     clock,
		idgen:     idgen,
		startedAt: time.Now(),
		db:        db,
		service:   svc,
	}
	a.fanout = search.NewFanout(serviceLister{a}, cfg.Search.WebEndpoint, cfg.Search.VideoEndpoint, logger)
	return a, nil
}

// serviceLister routes the fan-out's local lookups through the current
// service, so a backup import does not leave it holding a stale handle.
type serviceLister struct {
	a *App
}

func (l serviceLister) ListFiles(filter drive.FileFilter) ([]*model.FileInfo, error) {
	return l.a.Service().ListFiles(filter)
}

// Service returns the current drive service.
func (a *App) Service() *drive.Service {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.service
}

// Config returns the application configuration.
func (a *App) Config() *config.Config { return a.cfg }

// Logger returns the application logger.
func (a *App) Logger() drive.Logger { return a.logger }

// Fanout returns the search fan-out.
func (a *App) Fanout() *search.Fanout { return a.fanout }

// StartedAt returns the process start time.
func (a *App) StartedAt() time.Time { return a.startedAt }

// Encrypted reports whether backup exports will be encrypted.
func (a *App) Encrypted() bool {
	return a.encryptor != nil && a.encryptor.IsConfigured()
}

// BackupFilename returns the suggested name for a fresh export.
func (a *App) BackupFilename() string {
	name := "minicloud-backup-" + a.clock.Now().Format("20060102T150405Z") + ".zip"
	if a.Encrypted() {
		name += ".age"
	}
	return name
}

// ExportBackup streams a backup archive to w: a consistent database
// snapshot plus the managed storage tree, age-encrypted when keys are
// configured.
func (a *App) ExportBackup(w io.Writer) error {
	tmp, err := os.CreateTemp("", "minicloud-db-*.db")
	if err != nil {
		return fmt.Errorf("creating temp db snapshot: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	os.Remove(tmpPath) // VACUUM INTO requires the target not to exist
	defer os.Remove(tmpPath)

	a.mu.RLock()
	err = a.db.BackupTo(tmpPath)
	a.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("snapshotting database: %w", err)
	}

	if !a.Encrypted() {
		return backup.Export(w, tmpPath, a.store.Root())
	}

	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(backup.Export(pw, tmpPath, a.store.Root()))
	}()

	if err := a.encryptor.Encrypt(pr, w); err != nil {
		pr.CloseWithError(err)
		return fmt.Errorf("encrypting archive: %w", err)
	}
	return nil
}

// ImportBackup restores the database and managed tree from the archive
// at archivePath, replacing all current state. The database handle is
// closed for the duration of the swap and reopened afterwards.
func (a *App) ImportBackup(archivePath string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	dbPath := a.db.Path()
	if dbPath == "" || dbPath == ":memory:" {
		return fmt.Errorf("backup import requires a file-backed database")
	}

	if err := a.db.Close(); err != nil {
		return fmt.Errorf("closing database for import: %w", err)
	}

	importErr := backup.Import(archivePath, dbPath, a.store.Root())

	db, err := database.NewSQLiteDatabase(dbPath)
	if err != nil {
		return fmt.Errorf("reopening database: %w", err)
	}
	if importErr != nil {
		// The reopened handle still points at whatever state import
		// left behind; keep serving it rather than going dark.
		a.swapDatabase(db)
		return fmt.Errorf("importing backup: %w", importErr)
	}

	if err := db.MigrateUp(); err != nil {
		db.Close()
		return fmt.Errorf("migrating imported database: %w", err)
	}

	a.swapDatabase(db)
	if _, err := a.service.EnsureRootFolder(); err != nil {
		return fmt.Errorf("ensuring root folder after import: %w", err)
	}

	a.logger.Info("backup imported", "archive", archivePath)
	return nil
}

// swapDatabase replaces the handle and rebuilds the service around it.
// Caller must hold mu.
func (a *App) swapDatabase(db *database.SQLiteDatabase) {
	a.db = db
	a.service = drive.NewService(db, a.store, a.logger, a.clock, a.idgen)
}

// PushBackup exports a backup archive and uploads it to the configured
// vault. Returns the archive name.
func (a *App) PushBackup() (string, error) {
	if a.vault == nil {
		return "", fmt.Errorf("no vault configured")
	}

	tmp, err := os.CreateTemp("", "minicloud-backup-*")
	if err != nil {
		return "", fmt.Errorf("creating temp archive: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := a.ExportBackup(tmp); err != nil {
		tmp.Close()
		return "", fmt.Errorf("exporting backup: %w", err)
	}

	info, err := tmp.Stat()
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("stat temp archive: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return "", fmt.Errorf("rewinding temp archive: %w", err)
	}

	name := a.BackupFilename()
	if err := a.vault.PutArchive(name, tmp, info.Size()); err != nil {
		tmp.Close()
		return "", fmt.Errorf("uploading to vault: %w", err)
	}

	tmp.Close()
	a.logger.Info("backup pushed", "archive", name)
	return name, nil
}

// LatestArchiveName returns the name of the most recent archive in the
// vault, or "" when the vault is empty.
func (a *App) LatestArchiveName() (string, error) {
	if a.vault == nil {
		return "", fmt.Errorf("no vault configured")
	}
	return a.vault.LatestArchive()
}

// Unlock verifies the passphrase against the configured encryptor and
// returns a context for decrypting archives.
func (a *App) Unlock(passphrase string) (backup.DecryptionContext, error) {
	if a.encryptor == nil {
		return nil, fmt.Errorf("encryption is not configured")
	}
	return a.encryptor.Unlock(passphrase)
}

// RestoreBackup pulls the named archive from the vault and imports it,
// replacing all current state. An empty name restores the latest
// archive. decryptCtx is required for ".age" archives and ignored for
// plain ones. Returns the name of the archive restored.
func (a *App) RestoreBackup(name string, decryptCtx backup.DecryptionContext) (string, error) {
	if a.vault == nil {
		return "", fmt.Errorf("no vault configured")
	}
	if name == "" {
		latest, err := a.vault.LatestArchive()
		if err != nil {
			return "", fmt.Errorf("finding latest archive: %w", err)
		}
		if latest == "" {
			return "", fmt.Errorf("vault is empty")
		}
		name = latest
	}

	tmp, err := os.CreateTemp("", "minicloud-restore-*.zip")
	if err != nil {
		return "", fmt.Errorf("creating temp archive: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if strings.HasSuffix(name, ".age") {
		if decryptCtx == nil {
			tmp.Close()
			return "", fmt.Errorf("archive %s is encrypted but no passphrase was provided", name)
		}
		// Pipe vault output directly to the decryptor; no intermediate
		// buffer for the ciphertext.
		pr, pw := io.Pipe()
		vaultErrCh := make(chan error, 1)
		go func() {
			err := a.vault.GetArchive(name, pw)
			pw.CloseWithError(err)
			vaultErrCh <- err
		}()

		decryptErr := decryptCtx.Decrypt(pr, tmp)
		pr.CloseWithError(decryptErr) // unblock goroutine if Decrypt failed early
		<-vaultErrCh

		if decryptErr != nil {
			tmp.Close()
			return "", fmt.Errorf("decrypting archive: %w", decryptErr)
		}
	} else if err := a.vault.GetArchive(name, tmp); err != nil {
		tmp.Close()
		return "", fmt.Errorf("retrieving archive from vault: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp archive: %w", err)
	}

	if err := a.ImportBackup(tmpPath); err != nil {
		return "", err
	}

	a.logger.Info("backup restored", "archive", name)
	return name, nil
}

// Close releases all resources.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var firstErr error
	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
