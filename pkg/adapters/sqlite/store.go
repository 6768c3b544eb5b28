// Package sqlite persists schema documents in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/scheme/pkg/ports"
	_ "modernc.org/sqlite"
)

// Store implements ports.Store on a SQLite database.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and prepares the schemas
// table. Pass ":memory:" for an ephemeral store.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, err
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schemas (
			name TEXT PRIMARY KEY,
			description TEXT NOT NULL,
			version INTEGER NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schemas table: %w", err)
	}
	return nil
}

// Put inserts or replaces the document.
func (s *Store) Put(ctx context.Context, document *ports.Document) error {
	description, err := json.Marshal(document.Description)
	if err != nil {
		return fmt.Errorf("failed to marshal schema description: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO schemas (name, description, version, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			description = excluded.description,
			version = excluded.version,
			updated_at = excluded.updated_at
	`, document.Name, string(description), document.Version,
		document.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to store schema: %w", err)
	}

	return nil
}

// Get retrieves the named document.
func (s *Store) Get(ctx context.Context, name string) (*ports.Document, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT name, description, version, updated_at FROM schemas WHERE name = ?", name)

	document := &ports.Document{}
	var description, updatedAt string
	err := row.Scan(&document.Name, &description, &document.Version, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrSchemaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}

	if err := json.Unmarshal([]byte(description), &document.Description); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema description: %w", err)
	}
	if document.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse schema timestamp: %w", err)
	}

	return document, nil
}

// Delete removes the named document. Deleting an absent name is not an
// error.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM schemas WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete schema: %w", err)
	}
	return nil
}

// List returns stored schema names in alphabetical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM schemas ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
