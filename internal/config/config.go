// Package config handles leadboard configuration loading and validation.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration structure for leadboard.
type Config struct {
	// API settings for the CRM backend.
	API APIConfig `yaml:"api" mapstructure:"api"`

	// Global settings.
	Global GlobalConfig `yaml:"global" mapstructure:"global"`

	// Logging settings.
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// TUI settings.
	TUI TUIConfig `yaml:"tui" mapstructure:"tui"`
}

// APIConfig describes the CRM backend the board talks to.
type APIConfig struct {
	// BaseURL is the backend root, e.g. https://crm.example.com.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Token is the bearer credential issued by the auth service.
	Token string `yaml:"token" mapstructure:"token"`

	// AccountID scopes client-local preferences (hidden stages, sidebar).
	AccountID string `yaml:"account_id" mapstructure:"account_id"`

	// Timeout bounds a single REST request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// GlobalConfig contains global settings.
type GlobalConfig struct {
	// DataDir is where leadboard stores local state
	// (default: ~/.local/share/leadboard).
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// ConfigDir is where config files are stored
	// (default: ~/.config/leadboard).
	ConfigDir string `yaml:"config_dir" mapstructure:"config_dir"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path.
	File string `yaml:"file" mapstructure:"file"`
}

// TUIConfig contains TUI settings.
type TUIConfig struct {
	// Theme is the color theme (default, high-contrast).
	Theme string `yaml:"theme" mapstructure:"theme"`

	// SearchDebounce is how long search input must be idle before the
	// filter recomputes.
	SearchDebounce time.Duration `yaml:"search_debounce" mapstructure:"search_debounce"`

	// ObservationFetchLimit caps how many observations the detail panel
	// fetches per lead.
	ObservationFetchLimit int `yaml:"observation_fetch_limit" mapstructure:"observation_fetch_limit"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 15 * time.Second,
		},
		Global: GlobalConfig{
			DataDir:   filepath.Join(homeDir, ".local", "share", "leadboard"),
			ConfigDir: filepath.Join(homeDir, ".config", "leadboard"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		TUI: TUIConfig{
			Theme:                 "default",
			SearchDebounce:        500 * time.Millisecond,
			ObservationFetchLimit: 100,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL")
	}

	if c.API.Timeout < time.Second {
		return fmt.Errorf("api.timeout must be at least 1s")
	}

	if c.TUI.SearchDebounce < 50*time.Millisecond {
		return fmt.Errorf("tui.search_debounce must be at least 50ms")
	}

	if c.TUI.ObservationFetchLimit < 1 {
		return fmt.Errorf("tui.observation_fetch_limit must be at least 1")
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Global.DataDir,
		c.Global.ConfigDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// SnapshotPath returns the local snapshot database path.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.Global.DataDir, "leadboard.db")
}

// PrefsPath returns the persisted UI preferences path.
func (c *Config) PrefsPath() string {
	return filepath.Join(c.Global.DataDir, "ui-prefs.json")
}
