package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CurrentSchemaVersion is the release that introduced the newest column in
// AllMigrations. It is informational only; nothing is recorded in the database.
const CurrentSchemaVersion = "0.5.0"

// Migration adds one column to an existing table. Since is the release that
// introduced the column and keeps the list in a verifiable order.
type Migration struct {
	Since      string
	Table      string
	Column     string
	Definition string
}

// Statement returns the ALTER TABLE statement for the migration.
func (m Migration) Statement() string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Definition)
}

func (m Migration) String() string {
	return m.Table + "." + m.Column
}

// AllMigrations lists additive column changes in the order they shipped.
// They run on every startup; a column that already exists is skipped.
var AllMigrations = []Migration{
	{Since: "0.2.0", Table: "highlights", Column: "color", Definition: "TEXT NOT NULL DEFAULT '#facc15'"},
	// SQLite refuses non-constant defaults in ADD COLUMN, so rows that predate
	// the column get the epoch instead of their insertion time.
	{Since: "0.2.0", Table: "highlights", Column: "created_at", Definition: "TEXT NOT NULL DEFAULT '1970-01-01 00:00:00'"},
	{Since: "0.3.0", Table: "highlights", Column: "notes", Definition: "TEXT NOT NULL DEFAULT ''"},
	{Since: "0.4.0", Table: "books", Column: "locations_data", Definition: "TEXT"},
	{Since: "0.5.0", Table: "books", Column: "last_percentage", Definition: "REAL NOT NULL DEFAULT 0.0"},
}

const baseSchema = `
CREATE TABLE IF NOT EXISTS books (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    title           TEXT    NOT NULL UNIQUE,
    filename        TEXT    NOT NULL,
    last_cfi        TEXT    NOT NULL DEFAULT '',
    cover           TEXT,
    locations_data  TEXT,
    last_percentage REAL    NOT NULL DEFAULT 0.0,
    created_at      TEXT    NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS highlights (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    book_title  TEXT    NOT NULL,
    cfi         TEXT    NOT NULL,
    text        TEXT    NOT NULL,
    color       TEXT    NOT NULL DEFAULT '#facc15',
    notes       TEXT    NOT NULL DEFAULT '',
    created_at  TEXT    NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_highlights_book_title ON highlights(book_title);

CREATE TABLE IF NOT EXISTS bookmarks (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    book_title  TEXT    NOT NULL,
    cfi         TEXT    NOT NULL,
    label       TEXT    NOT NULL,
    created_at  TEXT    NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_bookmarks_book_title ON bookmarks(book_title);

CREATE TABLE IF NOT EXISTS collections (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT    NOT NULL UNIQUE,
    emoji       TEXT    NOT NULL DEFAULT '📌',
    created_at  TEXT    NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS highlight_collections (
    highlight_id  INTEGER NOT NULL,
    collection_id INTEGER NOT NULL,
    PRIMARY KEY (highlight_id, collection_id),
    FOREIGN KEY (highlight_id) REFERENCES highlights(id) ON DELETE CASCADE,
    FOREIGN KEY (collection_id) REFERENCES collections(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_highlight_collections_collection ON highlight_collections(collection_id);
`

// MigrationReport records which column migrations ran and which were
// already in place.
type MigrationReport struct {
	Applied []string
	Skipped []string
}

// ApplyMigrations creates any missing tables and then attempts every column
// migration. It is safe to call on every startup, including against a
// database written by an older release. Columns are never dropped or renamed.
func ApplyMigrations(ctx context.Context, db *sql.DB) (*MigrationReport, error) {
	if _, err := db.ExecContext(ctx, baseSchema); err != nil {
		return nil, fmt.Errorf("failed to create base tables: %w", err)
	}
	return applyColumnMigrations(ctx, db, AllMigrations)
}

func applyColumnMigrations(ctx context.Context, q querier, migrations []Migration) (*MigrationReport, error) {
	if err := validateMigrationOrder(migrations); err != nil {
		return nil, err
	}

	report := &MigrationReport{}
	for _, m := range migrations {
		_, err := q.ExecContext(ctx, m.Statement())
		switch {
		case err == nil:
			report.Applied = append(report.Applied, m.String())
		case isDuplicateColumn(err):
			report.Skipped = append(report.Skipped, m.String())
		default:
			return report, fmt.Errorf("failed to apply migration %s (since %s): %w", m, m.Since, err)
		}
	}
	return report, nil
}

// validateMigrationOrder rejects a list whose Since versions go backwards.
func validateMigrationOrder(migrations []Migration) error {
	var prev *semver.Version
	for _, m := range migrations {
		v, err := semver.NewVersion(m.Since)
		if err != nil {
			return fmt.Errorf("invalid migration version %s for %s: %w", m.Since, m, err)
		}
		if prev != nil && v.LessThan(prev) {
			return fmt.Errorf("migration %s (since %s) is listed after %s", m, m.Since, prev)
		}
		prev = v
	}
	return nil
}

// isDuplicateColumn reports whether err is SQLite refusing to add a column
// that already exists. Both drivers surface SQLite's message text.
func isDuplicateColumn(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "duplicate column name")
}
