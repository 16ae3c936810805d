// Package sqlite stores graph assets in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/vfxbridge/pkg/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS assets (
	path       TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_at DATETIME NOT NULL
);`

// Store implements ports.AssetStore on a SQL database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dsn. A dsn that names a
// file gets its directory created first; ":memory:" keeps everything in
// memory.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = filepath.Join(".vfxbridge", "assets.db")
	}
	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	s, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database and ensures the schema exists.
func New(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create assets table: %w", err)
	}
	return &Store{db: db}, nil
}

// Save inserts or replaces the asset.
func (s *Store) Save(ctx context.Context, path string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assets (path, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		path, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save asset: %w", err)
	}
	return nil
}

// Load returns the asset bytes.
func (s *Store) Load(ctx context.Context, path string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM assets WHERE path = ?`, path).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", path, domain.ErrAssetNotFound)
		}
		return nil, fmt.Errorf("failed to load asset: %w", err)
	}
	return data, nil
}

// Delete removes the asset.
func (s *Store) Delete(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM assets WHERE path = ?`, path); err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	return nil
}

// List returns the stored paths, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM assets ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	paths := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan asset path: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	return paths, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
