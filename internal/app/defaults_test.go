package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("uses env vars when set", func(t *testing.T) {
		t.Setenv("MINICLOUD_CONFIG_PATH", "/custom/config.toml")
		t.Setenv("MINICLOUD_HOME", "/custom/minicloud")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		if defaults["config_path"] != "/custom/config.toml" {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], "/custom/config.toml")
		}
		if defaults["data_dir"] != "/custom/minicloud" {
			t.Errorf("data_dir = %q, want %q", defaults["data_dir"], "/custom/minicloud")
		}
		if defaults["log_dir"] != "/custom/minicloud/log" {
			t.Errorf("log_dir = %q, want %q", defaults["log_dir"], "/custom/minicloud/log")
		}
	})

	t.Run("falls back to home dir defaults", func(t *testing.T) {
		t.Setenv("MINICLOUD_CONFIG_PATH", "")
		t.Setenv("MINICLOUD_HOME", "")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		homeDir, _ := os.UserHomeDir()

		wantConfig := filepath.Join(homeDir, ".config", "minicloud.toml")
		if defaults["config_path"] != wantConfig {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], wantConfig)
		}

		wantData := filepath.Join(homeDir, ".local", "share", "minicloud")
		if defaults["data_dir"] != wantData {
			t.Errorf("data_dir = %q, want %q", defaults["data_dir"], wantData)
		}
	})
}
