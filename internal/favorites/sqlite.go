// SPDX-License-Identifier: MIT

package favorites

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ManuGH/tvgrid/internal/persistence/sqlite"
)

const kvSchema = `CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
);`

// SQLiteBackend stores favorites as one row of a key/value table.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLiteBackend opens the database at path and ensures the schema exists.
func OpenSQLiteBackend(path string) (*SQLiteBackend, error) {
	db, err := sqlite.Open(path, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(kvSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func (s *SQLiteBackend) Name() string { return "sqlite" }

func (s *SQLiteBackend) Read(ctx context.Context) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, Key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlite read: %w", err)
	}
	return data, true, nil
}

func (s *SQLiteBackend) Write(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, Key, data)
	if err != nil {
		return fmt.Errorf("sqlite write: %w", err)
	}
	return nil
}

// Ping runs a quick integrity check on the favorites database.
func (s *SQLiteBackend) Ping(ctx context.Context) error {
	issues, err := sqlite.QuickCheck(ctx, s.db, false)
	if err != nil {
		return err
	}
	if issues != nil {
		return fmt.Errorf("sqlite integrity: %v", issues)
	}
	return nil
}

func (s *SQLiteBackend) Close() error { return s.db.Close() }
