package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./figx.db" {
			t.Errorf("expected database path ./figx.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Backend.BaseURL != "http://localhost:8000" {
			t.Errorf("expected backend base_url http://localhost:8000, got %s", config.Backend.BaseURL)
		}

		if config.Backend.CSRFCookie != "csrftoken" || config.Backend.CSRFHeader != "X-CSRFToken" {
			t.Errorf("unexpected csrf settings: %+v", config.Backend)
		}

		if config.UI.PlaceholderPoster != "https://via.placeholder.com/300x450?text=No+Poster" {
			t.Errorf("unexpected placeholder poster %s", config.UI.PlaceholderPoster)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[backend]
base_url = "https://movies.example.com/"
timeout_seconds = 5

[database]
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 8080
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Backend.BaseURL != "https://movies.example.com/" {
			t.Errorf("expected overridden base url, got %s", config.Backend.BaseURL)
		}
		if config.Backend.Timeout() != 5*time.Second {
			t.Errorf("expected 5s timeout, got %s", config.Backend.Timeout())
		}
		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected 0.0.0.0:8080, got %s", config.Server.Addr())
		}
		if config.Backend.CSRFCookie != "csrftoken" {
			t.Errorf("missing keys should keep defaults, got csrf cookie %q", config.Backend.CSRFCookie)
		}
		if config.BackendOrigin() != "https://movies.example.com" {
			t.Errorf("unexpected origin %s", config.BackendOrigin())
		}
	})

	t.Run("LoadConfig rejects relative base url", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[backend]\nbase_url = \"/api\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig("/nonexistent/config.toml"); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("Timeout default", func(t *testing.T) {
		if got := (BackendConfig{}).Timeout(); got != 30*time.Second {
			t.Errorf("expected 30s default timeout, got %s", got)
		}
	})
}
