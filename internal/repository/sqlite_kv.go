package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/dermaloop/internal/db"
)

// SQLiteKVStore implements KVStore over the kv_entries table. Each Put is a
// single upsert statement, which SQLite applies atomically.
type SQLiteKVStore struct {
	db  db.DBTX
	now func() time.Time
}

// NewSQLiteKVStore creates a store on conn, which may be a transaction.
func NewSQLiteKVStore(conn db.DBTX) *SQLiteKVStore {
	return &SQLiteKVStore{db: conn, now: time.Now}
}

func (s *SQLiteKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("kv entry %q: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("reading kv entry %q: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteKVStore) Put(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return errors.New("kv key must not be empty")
	}
	query := `INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, query, key, value, formatTime(s.now())); err != nil {
		return fmt.Errorf("writing kv entry %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteKVStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting kv entry %q: %w", key, err)
	}
	return nil
}

// UpdatedAt reports when key was last written.
func (s *SQLiteKVStore) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT updated_at FROM kv_entries WHERE key = ?`, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, fmt.Errorf("kv entry %q: %w", key, ErrNotFound)
		}
		return time.Time{}, fmt.Errorf("reading kv timestamp %q: %w", key, err)
	}
	return parseTime(raw), nil
}
