package catalog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteBackendSchema = `
CREATE TABLE IF NOT EXISTS servers (
	name TEXT PRIMARY KEY,
	payload BLOB NOT NULL,
	updated_at TEXT NOT NULL
);`

// SQLiteBackend persists the registry in a SQLite database. It holds the
// same full-read/full-write contract as FileBackend; each Save rewrites
// the server set in one transaction.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// NewSQLiteBackend opens (or creates) a SQLite-backed registry at path.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("catalog: sqlite backend path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("catalog: create registry dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: sqlite open: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("catalog: sqlite set WAL mode: %w", err)
	}
	if _, err := db.Exec(sqliteBackendSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("catalog: sqlite create schema: %w", err)
	}

	return &SQLiteBackend{db: db, path: path}, nil
}

// Path returns the database file path.
func (b *SQLiteBackend) Path() string {
	if b == nil {
		return ""
	}
	return b.path
}

// Load reads all definitions in name order. Rows whose payload no longer
// decodes are skipped, matching the file backend's degrade-to-empty
// posture at row granularity.
func (b *SQLiteBackend) Load() ([]ServerDefinition, error) {
	rows, err := b.db.Query("SELECT payload FROM servers ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("catalog: sqlite query servers: %w", err)
	}
	defer rows.Close()

	defs := make([]ServerDefinition, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("catalog: sqlite scan server row: %w", err)
		}
		var def ServerDefinition
		if err := json.Unmarshal(payload, &def); err != nil {
			continue
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: sqlite iterate servers: %w", err)
	}
	return defs, nil
}

// Save replaces the stored server set in a single transaction.
func (b *SQLiteBackend) Save(defs []ServerDefinition) error {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("catalog: sqlite begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.Exec("DELETE FROM servers"); err != nil {
		return fmt.Errorf("catalog: sqlite clear servers: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, def := range defs {
		payload, err := json.Marshal(def)
		if err != nil {
			return fmt.Errorf("catalog: encode server %q: %w", def.Name, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO servers (name, payload, updated_at) VALUES (?, ?, ?)",
			def.Name, payload, now,
		); err != nil {
			return fmt.Errorf("catalog: sqlite insert server %q: %w", def.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("catalog: sqlite commit: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (b *SQLiteBackend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

var _ Backend = (*SQLiteBackend)(nil)
