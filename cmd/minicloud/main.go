package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"minicloud/internal/app"
	"minicloud/internal/backup"
	"minicloud/internal/config"
	"minicloud/internal/encryption"
	"minicloud/internal/server"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer a.Close().
func newApp() (*app.App, error) {
	cfg, err := readConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// readConfig loads the config file, falling back to defaults when no
// file exists yet.
func readConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config.NewConfig(defaults["data_dir"]), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

var rootCmd = &cobra.Command{
	Use:   "minicloud",
	Short: "Personal cloud drive",
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		srv := &http.Server{
			Addr:    a.Config().HTTP.Listen,
			Handler: server.New(a, a.Logger()).Router(),
		}

		errCh := make(chan error, 1)
		go func() {
			a.Logger().Info("listening", "addr", srv.Addr)
			errCh <- srv.ListenAndServe()
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return fmt.Errorf("server failed: %w", err)
		case sig := <-stop:
			a.Logger().Info("shutting down", "signal", sig.String())
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["data_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Data Dir: %s\n", cfg.DataDir)
		fmt.Printf("Listen:   %s\n", cfg.HTTP.Listen)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Data Dir:   %s\n", cfg.DataDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Listen:     %s\n", cfg.HTTP.Listen)
		fmt.Printf("Database:   %s\n", cfg.DatabasePath())
		fmt.Printf("Encryption: %s\n", cfg.Encryption.Type)
		fmt.Printf("Vaults:     %d\n", len(cfg.Vaults))
		return nil
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage backups",
}

var backupExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a backup archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if out == "" {
			out = a.BackupFilename()
		}

		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating archive file: %w", err)
		}
		defer f.Close()

		if err := a.ExportBackup(f); err != nil {
			return fmt.Errorf("exporting backup: %w", err)
		}

		fmt.Printf("Backup written to %s\n", out)
		return nil
	},
}

var backupPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Export a backup and upload it to the configured vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		name, err := a.PushBackup()
		if err != nil {
			return fmt.Errorf("pushing backup: %w", err)
		}

		fmt.Printf("Backup pushed: %s\n", name)
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Pull a backup archive from the vault and restore it",
	RunE: func(cmd *cobra.Command, args []string) error {
		archive, _ := cmd.Flags().GetString("archive")
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return fmt.Errorf("restore replaces all current data; pass --yes to confirm")
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if archive == "" {
			archive, err = a.LatestArchiveName()
			if err != nil {
				return fmt.Errorf("finding latest archive: %w", err)
			}
			if archive == "" {
				return fmt.Errorf("vault is empty")
			}
		}

		var decryptCtx backup.DecryptionContext
		if strings.HasSuffix(archive, ".age") {
			fmt.Print("Passphrase: ")
			passphrase, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err != nil {
				return fmt.Errorf("reading passphrase: %w", err)
			}

			decryptCtx, err = a.Unlock(string(passphrase))
			if err != nil {
				return fmt.Errorf("unlocking key: %w", err)
			}
		}

		name, err := a.RestoreBackup(archive, decryptCtx)
		if err != nil {
			return fmt.Errorf("restoring backup: %w", err)
		}

		fmt.Printf("Restored from %s\n", name)
		return nil
	},
}

var backupKeyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage backup encryption keys",
}

var backupKeyInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate an encryption key pair for backup archives",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}

		passphrase, err := promptPassphrase()
		if err != nil {
			return err
		}

		enc := encryption.NewAgeEncryptor(cfg.Encryption)
		if err := enc.Setup(passphrase); err != nil {
			return fmt.Errorf("setting up keys: %w", err)
		}

		fmt.Printf("Public key:  %s\n", cfg.Encryption.PublicKeyPath)
		fmt.Printf("Private key: %s\n", cfg.Encryption.PrivateKeyPath)
		fmt.Println(`Set encryption type to "age" in the config to encrypt exports.`)
		return nil
	},
}

// promptPassphrase reads the passphrase twice without echo and verifies
// both entries match.
func promptPassphrase() (string, error) {
	fmt.Print("Passphrase: ")
	first, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}

	fmt.Print("Confirm passphrase: ")
	second, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}

	if string(first) != string(second) {
		return "", fmt.Errorf("passphrases do not match")
	}
	if len(first) == 0 {
		return "", fmt.Errorf("passphrase must not be empty")
	}
	return string(first), nil
}

// erase command
var eraseCmd = &cobra.Command{
	Use:   "erase",
	Short: "Erase all folders, files and logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return fmt.Errorf("refusing to erase without --yes")
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service().EraseAll(); err != nil {
			return fmt.Errorf("erasing: %w", err)
		}

		fmt.Println("All data erased. Root folder re-created.")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	backupCmd.AddCommand(backupExportCmd)
	backupExportCmd.Flags().StringP("out", "o", "", "Output file (default: timestamped name)")
	backupCmd.AddCommand(backupPushCmd)
	backupCmd.AddCommand(backupRestoreCmd)
	backupRestoreCmd.Flags().StringP("archive", "a", "", "Archive name (default: latest in vault)")
	backupRestoreCmd.Flags().Bool("yes", false, "Confirm replacing all current data")
	backupCmd.AddCommand(backupKeyCmd)
	backupKeyCmd.AddCommand(backupKeyInitCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(eraseCmd)
	eraseCmd.Flags().Bool("yes", false, "Confirm the irreversible erase")
}
