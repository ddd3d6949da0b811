package shared

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Backend  BackendConfig  `toml:"backend"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
	UI       UIConfig       `toml:"ui"`
	Import   ImportConfig   `toml:"import"`
}

// BackendConfig describes how to reach the catalog backend.
type BackendConfig struct {
	BaseURL        string  `toml:"base_url"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	RateLimit      float64 `toml:"rate_limit"`
	RateBurst      int     `toml:"rate_burst"`
	CSRFCookie     string  `toml:"csrf_cookie"`
	CSRFHeader     string  `toml:"csrf_header"`
	CSRFPrimePath  string  `toml:"csrf_prime_path"`
}

// Timeout returns the per-request timeout as a [time.Duration].
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local preview server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr joins host and port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig controls log level and the rotating file used by the terminal UI.
type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// UIConfig holds listing defaults.
type UIConfig struct {
	PlaceholderPoster string `toml:"placeholder_poster"`
	DefaultSource     string `toml:"default_source"`
	DefaultSort       string `toml:"default_sort"`
}

// ImportConfig tunes bulk imports.
type ImportConfig struct {
	Workers   int     `toml:"workers"`
	RateLimit float64 `toml:"rate_limit"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate checks the values that would otherwise fail later in confusing ways.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: backend.base_url must be an absolute URL, got %q", ErrInvalidConfig, c.Backend.BaseURL)
	}
	if c.Backend.CSRFCookie == "" || c.Backend.CSRFHeader == "" {
		return fmt.Errorf("%w: backend csrf cookie and header names are required", ErrInvalidConfig)
	}
	if c.Import.Workers < 0 {
		return fmt.Errorf("%w: import.workers must not be negative", ErrInvalidConfig)
	}
	return nil
}

// BackendOrigin returns scheme://host of the backend, used as the Referer on mutating requests.
func (c *Config) BackendOrigin() string {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil {
		return strings.TrimRight(c.Backend.BaseURL, "/")
	}
	return u.Scheme + "://" + u.Host
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
