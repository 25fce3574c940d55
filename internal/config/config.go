package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for minicloud.
type Config struct {
	DataDir    string           `toml:"data_dir"` // holds files.db and the storage/ tree
	LogDir     string           `toml:"log_dir"`
	HTTP       HTTPConfig       `toml:"http"`
	Database   DatabaseConfig   `toml:"database"`
	Vaults     []VaultConfig    `toml:"vaults"`
	Encryption EncryptionConfig `toml:"encryption"`
	Search     SearchConfig     `toml:"search"`
}

// HTTPConfig holds settings for the web server.
type HTTPConfig struct {
	Listen         string `toml:"listen"`                 // e.g. ":8080"
	FrontendDir    string `toml:"frontend_dir,omitempty"` // static files; empty disables
	MaxUploadBytes int64  `toml:"max_upload_bytes"`       // 0 means the 256MB default
}

// DatabaseConfig represents configuration for the metadata database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type string `toml:"type"`           // "sqlite" or "memory"
	Path string `toml:"path,omitempty"` // only used for type=sqlite; defaults to <data_dir>/files.db
}

// VaultConfig represents configuration for an offsite backup target.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type VaultConfig struct {
	Type string `toml:"type"` // "memory", "s3", or "filesystem"
	Name string `toml:"name"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket    string `toml:"s3_bucket,omitempty"`
	S3Prefix    string `toml:"s3_prefix,omitempty"`
	S3Region    string `toml:"s3_region,omitempty"`
	S3Endpoint  string `toml:"s3_endpoint,omitempty"` // custom endpoint for S3-compatible storage
	S3AccessKey string `toml:"s3_access_key,omitempty"`
	S3SecretKey string `toml:"s3_secret_key,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSVaultRoot string `toml:"fs_vault_root,omitempty"`
}

// EncryptionConfig holds paths to the age key pair used to encrypt backup
// archives. Type "none" (the default when no keys exist) disables it.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default), "test", or "none"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// SearchConfig holds endpoints for the fan-out search. Empty endpoints
// disable the corresponding section.
type SearchConfig struct {
	WebEndpoint   string `toml:"web_endpoint,omitempty"`
	VideoEndpoint string `toml:"video_endpoint,omitempty"`
}

// NewConfig creates a Config with the provided data directory and defaults.
func NewConfig(dataDir string) *Config {
	return &Config{
		DataDir: dataDir,
		LogDir:  filepath.Join(dataDir, "log"),
		HTTP: HTTPConfig{
			Listen: ":8080",
		},
		Database: DatabaseConfig{
			Type: "sqlite",
		},
		Encryption: EncryptionConfig{
			Type:           "none",
			PublicKeyPath:  filepath.Join(dataDir, "keys", "minicloud.pub"),
			PrivateKeyPath: filepath.Join(dataDir, "keys", "minicloud.key"),
		},
	}
}

// DatabasePath returns the configured sqlite path, defaulting to
// <data_dir>/files.db.
func (c *Config) DatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(c.DataDir, "files.db")
}

// StorageRoot returns the managed root directory for stored objects.
func (c *Config) StorageRoot() string {
	return filepath.Join(c.DataDir, "storage")
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
