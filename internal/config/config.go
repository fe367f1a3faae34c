// Package config provides configuration file and environment variable support for byline.
//
// Configuration priority (highest to lowest):
//  1. Command-line flags
//  2. Environment variables
//  3. Config file (~/.byline/config.toml)
//  4. Built-in defaults
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config represents the byline configuration.
type Config struct {
	// DB is the path to the database file.
	// Default: ~/.byline/byline.db
	DB string `toml:"db"`

	// NoColor disables colored output.
	// Default: false
	NoColor bool `toml:"no_color"`

	// DefaultFeed is the feed key used when a command is given none.
	DefaultFeed string `toml:"default_feed"`

	// Author is the name recorded on posted entries when --author is not given.
	// Empty means entries are posted without an author.
	Author string `toml:"author"`

	// TimeStyle selects how bylines describe elapsed time: "compact" (3h ago)
	// or "long" (3 hours ago).
	// Default: compact
	TimeStyle string `toml:"time_style"`

	// LogLevel is one of debug, info, warn, error.
	// Default: info
	LogLevel string `toml:"log_level"`

	// RetentionDays is how old an entry may get before prune removes it.
	// Default: 90
	RetentionDays int `toml:"retention_days"`

	// Backup configures automatic database backups.
	Backup BackupConfig `toml:"backup"`
}

// BackupConfig configures rotating database backups.
type BackupConfig struct {
	// Enabled turns automatic backups on.
	// Default: true
	Enabled bool `toml:"enabled"`

	// Path is the directory holding backups. Empty means next to the database.
	Path string `toml:"path"`

	// IntervalHours is the minimum age of the newest backup before another is taken.
	// Default: 24
	IntervalHours int `toml:"interval_hours"`

	// MaxCount is how many backups are kept.
	// Default: 5
	MaxCount int `toml:"max_count"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		DB:            "", // Empty means use db.DefaultDBPath
		NoColor:       false,
		TimeStyle:     "compact",
		LogLevel:      "info",
		RetentionDays: 90,
		Backup: BackupConfig{
			Enabled:       true,
			IntervalHours: 24,
			MaxCount:      5,
		},
	}
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".byline", "config.toml")
}

// Load loads configuration from the config file and environment variables.
// Environment variables take precedence over file settings.
// Returns default config if the config file doesn't exist.
func Load() (*Config, error) {
	return LoadFromPath(DefaultConfigPath())
}

// LoadFromPath loads configuration from a specific file path.
// Environment variables take precedence over file settings.
// Returns default config if the config file doesn't exist.
func LoadFromPath(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if _, err := toml.DecodeFile(configPath, cfg); err != nil {
				return nil, err
			}
		}
	}

	cfg.applyEnv()

	return cfg, nil
}

// applyEnv applies environment variable overrides to the config.
func (c *Config) applyEnv() {
	if db := os.Getenv("BYLINE_DB"); db != "" {
		c.DB = db
	}
	// BYLINE_DB_PATH takes precedence over BYLINE_DB (more explicit name)
	if dbPath := os.Getenv("BYLINE_DB_PATH"); dbPath != "" {
		c.DB = dbPath
	}

	// BYLINE_NO_COLOR - any value means true
	if _, ok := os.LookupEnv("BYLINE_NO_COLOR"); ok {
		c.NoColor = true
	}

	if feed := os.Getenv("BYLINE_DEFAULT_FEED"); feed != "" {
		c.DefaultFeed = feed
	}

	if author := os.Getenv("BYLINE_AUTHOR"); author != "" {
		c.Author = author
	}

	if style := os.Getenv("BYLINE_TIME_STYLE"); style != "" {
		c.TimeStyle = style
	}

	if level := os.Getenv("BYLINE_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}

	if days := os.Getenv("BYLINE_RETENTION_DAYS"); days != "" {
		if d, err := strconv.Atoi(days); err == nil && d > 0 {
			c.RetentionDays = d
		}
	}
}

// GetDB returns the database path, using the default if not set.
func (c *Config) GetDB() string {
	return c.DB // Empty signals use of db.DefaultDBPath
}

// SampleConfig returns a sample configuration file content.
func SampleConfig() string {
	return `# Byline Configuration File
# Location: ~/.byline/config.toml
#
# Configuration priority (highest to lowest):
#   1. Command-line flags
#   2. Environment variables (BYLINE_*)
#   3. This config file
#   4. Built-in defaults

# Path to the database file
# Default: ~/.byline/byline.db
# Environment: BYLINE_DB or BYLINE_DB_PATH (BYLINE_DB_PATH takes precedence)
# db = "/path/to/byline.db"

# Disable colored output
# Default: false
# Environment: BYLINE_NO_COLOR (any value = true)
# no_color = false

# Default feed key for commands
# Used when no feed argument is given
# Environment: BYLINE_DEFAULT_FEED
# default_feed = "OPS"

# Author name recorded on posted entries
# Used when --author is not specified
# Environment: BYLINE_AUTHOR
# author = "alex"

# How bylines describe elapsed time: "compact" (3h ago) or "long" (3 hours ago)
# Default: compact
# Environment: BYLINE_TIME_STYLE
# time_style = "compact"

# Log level: debug, info, warn, error
# Default: info
# Environment: BYLINE_LOG_LEVEL
# log_level = "info"

# Entries older than this many days are removed by 'byline prune'
# Default: 90
# Environment: BYLINE_RETENTION_DAYS
# retention_days = 90

[backup]
# Take a rotating backup of the database before commands run
# enabled = true
# Directory for backups (default: next to the database)
# path = ""
# Hours between backups
# interval_hours = 24
# Number of backups to keep
# max_count = 5
`
}

// WriteConfigFile writes the sample config file to the specified path.
// Creates parent directories if needed.
func WriteConfigFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(SampleConfig()), 0644)
}
