// Package cache persists per-file analysis outcomes so repeated runs over
// an unchanged tree skip parsing entirely. Entries are keyed by content
// hash plus rule-set fingerprint; the database never needs invalidation.
package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Entry is one cached analysis outcome.
type Entry struct {
	Key        string
	Path       string
	Clean      bool
	Violations int
	Cycles     int
	UpdatedAt  time.Time
}

// Cache is a sqlite-backed result cache.
type Cache struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS results (
	key        TEXT PRIMARY KEY,
	path       TEXT NOT NULL,
	clean      INTEGER NOT NULL,
	violations INTEGER NOT NULL,
	cycles     INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// Open opens (or creates) the cache database at the given path, creating
// parent directories as needed.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Get looks an entry up by key. A miss returns (nil, nil).
func (c *Cache) Get(key string) (*Entry, error) {
	row := c.db.QueryRow(
		`SELECT key, path, clean, violations, cycles, updated_at FROM results WHERE key = ?`, key)

	var e Entry
	var clean int
	var updated int64
	err := row.Scan(&e.Key, &e.Path, &clean, &e.Violations, &e.Cycles, &updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache read failed: %w", err)
	}

	e.Clean = clean != 0
	e.UpdatedAt = time.Unix(updated, 0)
	return &e, nil
}

// Put stores or replaces an entry.
func (c *Cache) Put(e *Entry) error {
	clean := 0
	if e.Clean {
		clean = 1
	}
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO results (key, path, clean, violations, cycles, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Key, e.Path, clean, e.Violations, e.Cycles, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("cache write failed: %w", err)
	}
	return nil
}

// Prune removes entries older than the given age.
func (c *Cache) Prune(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).Unix()
	res, err := c.db.Exec(`DELETE FROM results WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cache prune failed: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}
