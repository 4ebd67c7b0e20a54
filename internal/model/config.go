package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/inovacc/gitmon/internal/application"
)

// ConfigError reports an invalid configuration value. Configuration errors
// are fatal at startup and never recovered from mid-run.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
	}

	return "config error: " + e.Message
}

// Config holds the application configuration
type Config struct {
	// WatchDirectories are the roots scanned for git repositories
	WatchDirectories []string `json:"watch_directories"`

	// RefreshInterval is the status rescan interval in seconds
	RefreshInterval int `json:"refresh_interval"`

	// MaxDepth is the maximum directory depth searched below each root
	MaxDepth int `json:"max_depth"`

	// AutoFetchEnabled turns the periodic background fetch on
	AutoFetchEnabled bool `json:"auto_fetch_enabled"`

	// AutoFetchInterval is the background fetch interval in seconds
	AutoFetchInterval int `json:"auto_fetch_interval"`

	// FetchParallel caps how many repositories are fetched concurrently
	FetchParallel int `json:"fetch_parallel"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	// Get a user home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return Config{
		WatchDirectories:  []string{filepath.Join(homeDir, "code")},
		RefreshInterval:   5,
		MaxDepth:          3,
		AutoFetchEnabled:  false,
		AutoFetchInterval: 300,
		FetchParallel:     4,
	}
}

// Validate rejects out-of-bounds values. Values are never silently clamped.
func (c *Config) Validate() error {
	if c.RefreshInterval < 1 {
		return &ConfigError{
			Field:   "refresh_interval",
			Message: fmt.Sprintf("must be >= 1, got %d", c.RefreshInterval),
		}
	}

	if c.MaxDepth < 1 {
		return &ConfigError{
			Field:   "max_depth",
			Message: fmt.Sprintf("must be >= 1, got %d", c.MaxDepth),
		}
	}

	if c.AutoFetchInterval < 60 {
		return &ConfigError{
			Field:   "auto_fetch_interval",
			Message: fmt.Sprintf("must be >= 60 seconds, got %d", c.AutoFetchInterval),
		}
	}

	if c.FetchParallel < 1 {
		return &ConfigError{
			Field:   "fetch_parallel",
			Message: fmt.Sprintf("must be >= 1, got %d", c.FetchParallel),
		}
	}

	return nil
}

// ConfigPath returns the default configuration file location.
func ConfigPath() (string, error) {
	dir, err := application.ConfigDirectory()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, "config.json"), nil
}

// LoadConfig reads and validates the configuration at path. When the file
// does not exist a default configuration is written there first.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		var err error
		if path, err = ConfigPath(); err != nil {
			return Config{}, err
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := SaveConfig(path, cfg); err != nil {
			return Config{}, fmt.Errorf("creating default config: %w", err)
		}

		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON in config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// SaveConfig writes the configuration as indented JSON, creating parent
// directories as needed.
func SaveConfig(path string, cfg Config) error {
	if path == "" {
		var err error
		if path, err = ConfigPath(); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}

	return nil
}

// ExpandedDirectories returns watch directories with "~" and environment
// variables expanded. Entries that do not exist or are not directories are
// dropped rather than treated as errors.
func (c *Config) ExpandedDirectories() []string {
	var dirs []string

	for _, dir := range c.WatchDirectories {
		expanded := os.ExpandEnv(dir)

		if strings.HasPrefix(expanded, "~") {
			if home, err := os.UserHomeDir(); err == nil {
				expanded = filepath.Join(home, strings.TrimPrefix(expanded, "~"))
			}
		}

		info, err := os.Stat(expanded)
		if err != nil || !info.IsDir() {
			continue
		}

		dirs = append(dirs, expanded)
	}

	return dirs
}
