package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB with naflume-specific helpers.
type DB struct {
	*sql.DB
	path string
}

// Open creates or opens a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// OpenMemory creates an in-memory SQLite database (useful for testing).
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	// Each connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)

	d := &DB{DB: sqlDB, path: ":memory:"}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// Path returns the file the database was opened from.
func (d *DB) Path() string { return d.path }

// migrate runs all schema migrations.
func (d *DB) migrate() error {
	_, err := d.Exec(schema)
	return err
}

// schema contains the full database schema. New tables are added here.
const schema = `
CREATE TABLE IF NOT EXISTS guidance_entries (
    id TEXT PRIMARY KEY,
    source TEXT NOT NULL CHECK(source IN ('quran','hadith')),
    reference TEXT NOT NULL,
    text TEXT NOT NULL DEFAULT '',
    translation TEXT NOT NULL DEFAULT '',
    secondary_translation TEXT NOT NULL DEFAULT '',
    commentary_reference TEXT NOT NULL DEFAULT '',
    commentary TEXT NOT NULL DEFAULT '',
    secondary_commentary TEXT NOT NULL DEFAULT '',
    type TEXT NOT NULL CHECK(type IN ('motivation','guidance')),
    themes TEXT NOT NULL DEFAULT '[]',
    priority INTEGER NOT NULL CHECK(priority > 0),
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_guidance_order ON guidance_entries(priority DESC, created_at DESC, id);
CREATE INDEX IF NOT EXISTS idx_guidance_reference ON guidance_entries(reference);
CREATE INDEX IF NOT EXISTS idx_guidance_source_type ON guidance_entries(source, type);

CREATE TABLE IF NOT EXISTS deeds (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    kind TEXT NOT NULL CHECK(kind IN ('good','bad')),
    title TEXT NOT NULL,
    notes TEXT NOT NULL DEFAULT '',
    day TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_deeds_user_day ON deeds(user_id, day);

CREATE TABLE IF NOT EXISTS asset_cache (
    bucket TEXT NOT NULL,
    path TEXT NOT NULL,
    status INTEGER NOT NULL,
    header TEXT NOT NULL DEFAULT '{}',
    body BLOB NOT NULL,
    stored_at DATETIME NOT NULL DEFAULT (datetime('now')),
    PRIMARY KEY(bucket, path)
);
`
