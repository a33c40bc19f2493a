// Package config handles global mdb configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/aidanlsb/mdb/internal/index"
)

// Default locations relative to the base directory.
const (
	DefaultDatabaseDir  = ".mdb"
	DefaultDatabaseFile = "mdb.db"
)

// Environment variables recognized alongside the config file.
// Flags beat environment, environment beats file, file beats defaults.
const (
	EnvDatabase = "MDB_DATABASE"
	EnvBaseDir  = "MDB_BASE_DIR"
)

// Config represents the global mdb configuration.
type Config struct {
	// Database is the index database path.
	Database string `toml:"database"`

	// BaseDir is the notes directory to scan and watch.
	BaseDir string `toml:"base_dir"`

	// Limit caps query result rows when no -l flag is given.
	Limit int `toml:"limit"`

	// UI controls optional CLI theming preferences.
	UI UIConfig `toml:"ui"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an optional accent color for CLI output and markdown rendering.
	// Supported values are ANSI color codes ("0" to "255") or hex colors ("#RRGGBB").
	Accent string `toml:"accent"`

	// CodeTheme sets the Glamour/Chroma theme used for rendered markdown code blocks.
	// Example values: "monokai", "dracula", "github", "nord".
	CodeTheme string `toml:"code_theme"`
}

// ResolveBaseDir returns the effective base directory: the flag value if
// set, then MDB_BASE_DIR, then the config file, then the current
// directory.
func (c *Config) ResolveBaseDir(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(EnvBaseDir); env != "" {
		return env
	}
	if c.BaseDir != "" {
		return c.BaseDir
	}
	return "."
}

// ResolveDatabase returns the effective database path: the flag value if
// set, then MDB_DATABASE, then the config file, then
// <base>/.mdb/mdb.db.
func (c *Config) ResolveDatabase(flag, baseDir string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(EnvDatabase); env != "" {
		return env
	}
	if c.Database != "" {
		return c.Database
	}
	return filepath.Join(baseDir, DefaultDatabaseDir, DefaultDatabaseFile)
}

// ResolveLimit returns the effective result limit: the flag value if
// positive, then the config file, then the built-in default.
func (c *Config) ResolveLimit(flag int) int {
	if flag > 0 {
		return flag
	}
	if c.Limit > 0 {
		return c.Limit
	}
	return index.DefaultLimit
}

// Load loads the configuration from the default location.
// Returns a default config if the file doesn't exist.
func Load() (*Config, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &Config{}, nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &config, nil
}

// DefaultPath returns the default config file path.
// Checks ~/.config/mdb/config.toml first (XDG style),
// then falls back to OS-specific location.
func DefaultPath() string {
	// Prefer XDG-style ~/.config/mdb/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "mdb", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	// Fall back to XDG config dir or OS-specific location
	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "mdb", "config.toml")
	}

	// Last resort fallback
	return filepath.Join(".", "config.toml")
}

// CreateDefault creates a default config file if it doesn't exist.
func CreateDefault() (string, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil // Already exists
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	defaultConfig := `# mdb Configuration

# Notes directory to index (defaults to the current directory).
# base_dir = "/path/to/your/notes"

# Index database path (defaults to <base_dir>/.mdb/mdb.db).
# database = "/path/to/mdb.db"

# Default result limit for queries.
# limit = 1000

# Optional UI accent color for headers/links in terminal output.
# Supports ANSI color codes (0-255) or hex (#RRGGBB).
# [ui]
# accent = "39"
# code_theme = "monokai"
`

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return configPath, nil
}
