// Package config loads textindex configuration.
//
// Configuration is layered in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config ($XDG_CONFIG_HOME/textindex/config.yaml or ~/.config/textindex/config.yaml)
//  3. Project config (.textindex.yaml, then .textindex.yml)
//  4. Environment variables (TEXTINDEX_*)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	ierrors "github.com/Aman-CERP/textindex/internal/errors"
)

// Environment variables that override file configuration.
const (
	EnvToken         = "TEXTINDEX_TOKEN"
	EnvIndexWorkers  = "TEXTINDEX_INDEX_WORKERS"
	EnvSearchWorkers = "TEXTINDEX_SEARCH_WORKERS"
	EnvLogLevel      = "TEXTINDEX_LOG_LEVEL"
	EnvEventBuffer   = "TEXTINDEX_EVENT_BUFFER"
)

// Config is the complete configuration.
type Config struct {
	Index   IndexConfig   `yaml:"index" json:"index"`
	Search  SearchConfig  `yaml:"search" json:"search"`
	Watch   WatchConfig   `yaml:"watch" json:"watch"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// IndexConfig configures indexing.
type IndexConfig struct {
	// Token is the delimiter pattern that separates words.
	Token string `yaml:"token" json:"token"`
	// Workers bounds parallel file reads during bulk indexing.
	Workers int `yaml:"workers" json:"workers"`
	// FollowSymlinks indexes symlinks to regular files found in directories.
	FollowSymlinks bool `yaml:"follow_symlinks" json:"follow_symlinks"`
}

// SearchConfig configures positional search.
type SearchConfig struct {
	// Workers bounds parallel candidate scans.
	Workers int `yaml:"workers" json:"workers"`
	// TableCacheSize is the number of cached shift tables.
	TableCacheSize int `yaml:"table_cache_size" json:"table_cache_size"`
}

// WatchConfig configures the filesystem watcher.
type WatchConfig struct {
	// EventBufferSize bounds pending events per watched directory.
	EventBufferSize int `yaml:"event_buffer_size" json:"event_buffer_size"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// NewConfig returns the default configuration.
func NewConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Token:   `\s+`,
			Workers: 4,
		},
		Search: SearchConfig{
			Workers:        4,
			TableCacheSize: 256,
		},
		Watch: WatchConfig{
			EventBufferSize: 1000,
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// GetUserConfigPath returns the path of the user configuration file,
// following the XDG Base Directory layout.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "textindex", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "textindex", "config.yaml")
	}
	return filepath.Join(home, ".config", "textindex", "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	_, err := os.Stat(GetUserConfigPath())
	return err == nil
}

// Load loads configuration for the project in dir.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, ierrors.ConfigError("invalid configuration", err)
	}
	return cfg, nil
}

// LoadFile loads configuration from an explicit file instead of the user and
// project files. Environment overrides still apply.
func LoadFile(path string) (*Config, error) {
	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, ierrors.ConfigError("invalid configuration", err)
	}
	return cfg, nil
}

// ProjectConfigPath returns the project config file in dir, or "" if none.
// .textindex.yaml takes precedence over .textindex.yml.
func ProjectConfigPath(dir string) string {
	for _, name := range []string{".textindex.yaml", ".textindex.yml"} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return path
		}
	}
	return ""
}

func (c *Config) loadFromFile(dir string) error {
	path := ProjectConfigPath(dir)
	if path == "" {
		return nil
	}
	return c.loadYAML(path)
}

// loadYAML merges the non-zero values of the file at path into c.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return ierrors.New(ierrors.ErrCodeConfigNotFound, "read config file "+path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return ierrors.ConfigError("parse config file "+path, err).WithDetail("path", path)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Index.Token != "" {
		c.Index.Token = other.Index.Token
	}
	if other.Index.Workers != 0 {
		c.Index.Workers = other.Index.Workers
	}
	if other.Index.FollowSymlinks {
		c.Index.FollowSymlinks = true
	}

	if other.Search.Workers != 0 {
		c.Search.Workers = other.Search.Workers
	}
	if other.Search.TableCacheSize != 0 {
		c.Search.TableCacheSize = other.Search.TableCacheSize
	}

	if other.Watch.EventBufferSize != 0 {
		c.Watch.EventBufferSize = other.Watch.EventBufferSize
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}
}

// applyEnvOverrides applies TEXTINDEX_* environment variable overrides.
// Unparsable numbers are ignored.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvToken); v != "" {
		c.Index.Token = v
	}
	if n, ok := envInt(EnvIndexWorkers); ok {
		c.Index.Workers = n
	}
	if n, ok := envInt(EnvSearchWorkers); ok {
		c.Search.Workers = n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if n, ok := envInt(EnvEventBuffer); ok {
		c.Watch.EventBufferSize = n
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Index.Token) == "" {
		return fmt.Errorf("index.token must not be blank")
	}
	if _, err := regexp.Compile(c.Index.Token); err != nil {
		return fmt.Errorf("index.token is not a valid pattern: %w", err)
	}
	if c.Index.Workers < 1 {
		return fmt.Errorf("index.workers must be at least 1, got %d", c.Index.Workers)
	}
	if c.Search.Workers < 1 {
		return fmt.Errorf("search.workers must be at least 1, got %d", c.Search.Workers)
	}
	if c.Search.TableCacheSize < 1 {
		return fmt.Errorf("search.table_cache_size must be at least 1, got %d", c.Search.TableCacheSize)
	}
	if c.Watch.EventBufferSize < 1 {
		return fmt.Errorf("watch.event_buffer_size must be at least 1, got %d", c.Watch.EventBufferSize)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}
	if c.Logging.MaxSizeMB < 1 || c.Logging.MaxFiles < 1 {
		return fmt.Errorf("logging.max_size_mb and logging.max_files must be at least 1")
	}
	return nil
}

// YAML returns the configuration as YAML.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// WriteYAML writes the configuration to a YAML file, creating its directory.
func (c *Config) WriteYAML(path string) error {
	data, err := c.YAML()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
