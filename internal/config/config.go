// Package config loads shelf settings from defaults, an optional YAML file
// and SHELF_* environment overrides, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/shelf-mcp/internal/validation"
)

// Env var names used as overrides.
const (
	EnvConfig       = "SHELF_CONFIG"
	EnvDataDir      = "SHELF_DATA_DIR"
	EnvDatabaseFile = "SHELF_DATABASE_FILE"
	EnvBooksDir     = "SHELF_BOOKS_DIR"
	EnvLogLevel     = "SHELF_LOG_LEVEL"
	EnvLogFormat    = "SHELF_LOG_FORMAT"
	EnvLogFile      = "SHELF_LOG_FILE"
)

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
	File   string `yaml:"file"`
}

// Config is the resolved configuration.
type Config struct {
	// DataDir is the application-managed storage root.
	DataDir      string        `yaml:"data_dir" validate:"required"`
	DatabaseFile string        `yaml:"database_file" validate:"required,excludesall=/\\"`
	BooksDir     string        `yaml:"books_dir" validate:"required"`
	Logging      LoggingConfig `yaml:"logging"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		DataDir:      defaultDataDir(),
		DatabaseFile: "highlights.db",
		BooksDir:     "books",
		Logging:      LoggingConfig{Level: "info", Format: "text"},
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "shelf")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".shelf")
	}
	return ".shelf"
}

// Load resolves the configuration. path may be empty, in which case
// SHELF_CONFIG is consulted; a file that does not exist is skipped.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		path = strings.TrimSpace(os.Getenv(EnvConfig))
	}
	if path != "" {
		fileCfg, err := readFile(path)
		if err != nil {
			return nil, err
		}
		if fileCfg != nil {
			mergeInto(&cfg, fileCfg)
		}
	}

	applyEnvOverrides(&cfg)

	if err := validation.New("yaml").Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

func mergeInto(dst *Config, src *Config) {
	if v := strings.TrimSpace(src.DataDir); v != "" {
		dst.DataDir = v
	}
	if v := strings.TrimSpace(src.DatabaseFile); v != "" {
		dst.DatabaseFile = v
	}
	if v := strings.TrimSpace(src.BooksDir); v != "" {
		dst.BooksDir = v
	}
	if v := strings.TrimSpace(src.Logging.Level); v != "" {
		dst.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Logging.Format); v != "" {
		dst.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Logging.File); v != "" {
		dst.Logging.File = v
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		cfg.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDatabaseFile)); v != "" {
		cfg.DatabaseFile = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBooksDir)); v != "" {
		cfg.BooksDir = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// DatabasePath is where the SQLite file lives.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, c.DatabaseFile)
}

// BooksPath is the managed content directory. An absolute BooksDir is
// used as is.
func (c *Config) BooksPath() string {
	if filepath.IsAbs(c.BooksDir) {
		return c.BooksDir
	}
	return filepath.Join(c.DataDir, c.BooksDir)
}
