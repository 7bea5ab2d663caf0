package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/shelf-mcp/pkg/types"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{EnvConfig, EnvDataDir, EnvDatabaseFile, EnvBooksDir, EnvLogLevel, EnvLogFormat, EnvLogFile} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "highlights.db", cfg.DatabaseFile)
	assert.Equal(t, "books", cfg.BooksDir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, filepath.Join(cfg.DataDir, "highlights.db"), cfg.DatabasePath())
	assert.Equal(t, filepath.Join(cfg.DataDir, "books"), cfg.BooksPath())
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "highlights.db", cfg.DatabaseFile)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "shelf.yaml")
	yml := []byte(`
data_dir: /srv/shelf
database_file: library.db
logging:
  level: DEBUG
  format: json
`)
	require.NoError(t, os.WriteFile(path, yml, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/shelf", cfg.DataDir)
	assert.Equal(t, "library.db", cfg.DatabaseFile)
	assert.Equal(t, "books", cfg.BooksDir)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	t.Setenv(EnvDataDir, dir)
	t.Setenv(EnvBooksDir, "/mnt/epubs")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "/mnt/epubs", cfg.BooksPath())
}

func TestLoad_ConfigFromEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "shelf.yaml")
	require.NoError(t, os.WriteFile(path, []byte("books_dir: epubs\n"), 0o600))
	t.Setenv(EnvConfig, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "epubs", cfg.BooksDir)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvLogFormat, "xml")

	_, err := Load("")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "logging.format")
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "shelf.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
