// Copyright © 2026 Gridmux contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: store/store.go
// Summary: SQLite-backed persistence for named layouts. The payload is
// the engine's own serialized JSON; the store never interprets it.

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNoLayout is returned when the named layout does not exist.
var ErrNoLayout = errors.New("layout not found")

// Current schema version - increment this when schema changes.
const layoutSchemaVersion = 1

const layoutSchema = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS layouts (
    name TEXT PRIMARY KEY,
    payload TEXT NOT NULL,            -- serialized layout JSON
    saved_at INTEGER NOT NULL         -- UnixNano
);
`

// LayoutInfo describes one stored layout.
type LayoutInfo struct {
	Name    string
	SavedAt time.Time
}

// Store persists serialized layouts in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open creates or opens the layout database at path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// Open database with pragmas for performance and concurrency
	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=temp_store(MEMORY)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec(layoutSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	if err := stampSchemaVersion(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func stampSchemaVersion(db *sql.DB) error {
	var current int
	err := db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&current)
	if err == sql.ErrNoRows {
		current = 0
	} else if err != nil {
		return fmt.Errorf("failed to check schema version: %w", err)
	}
	if current == layoutSchemaVersion {
		return nil
	}
	if _, err := db.Exec("DELETE FROM schema_version"); err != nil {
		return fmt.Errorf("failed to reset schema version: %w", err)
	}
	if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", layoutSchemaVersion); err != nil {
		return fmt.Errorf("failed to stamp schema version: %w", err)
	}
	return nil
}

// Save upserts a layout under name.
func (s *Store) Save(name string, payload []byte) error {
	if name == "" {
		return fmt.Errorf("layout name must not be empty")
	}
	_, err := s.db.Exec(
		`INSERT INTO layouts (name, payload, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
		name, string(payload), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save layout %q: %w", name, err)
	}
	return nil
}

// Load returns the payload stored under name.
func (s *Store) Load(name string) ([]byte, error) {
	var payload string
	err := s.db.QueryRow("SELECT payload FROM layouts WHERE name = ?", name).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("layout %q: %w", name, ErrNoLayout)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load layout %q: %w", name, err)
	}
	return []byte(payload), nil
}

// List returns all stored layouts, newest first.
func (s *Store) List() ([]LayoutInfo, error) {
	rows, err := s.db.Query("SELECT name, saved_at FROM layouts ORDER BY saved_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list layouts: %w", err)
	}
	defer rows.Close()

	var out []LayoutInfo
	for rows.Next() {
		var name string
		var savedAt int64
		if err := rows.Scan(&name, &savedAt); err != nil {
			return nil, fmt.Errorf("failed to scan layout row: %w", err)
		}
		out = append(out, LayoutInfo{Name: name, SavedAt: time.Unix(0, savedAt)})
	}
	return out, rows.Err()
}

// Delete removes the layout stored under name.
func (s *Store) Delete(name string) error {
	res, err := s.db.Exec("DELETE FROM layouts WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete layout %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("layout %q: %w", name, ErrNoLayout)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
