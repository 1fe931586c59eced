package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at path and returns a
// Persister that keeps one row per (scope, key).
func NewSQLiteStore(path string) (Persister, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &sqliteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *sqliteStore) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS context_values (
		scope      TEXT NOT NULL,
		key        TEXT NOT NULL,
		value      TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		expires_at INTEGER,
		PRIMARY KEY (scope, key)
	);
	CREATE INDEX IF NOT EXISTS idx_context_values_expires ON context_values(expires_at);
	`)
	return err
}

func (s *sqliteStore) Load(ctx context.Context, scope Scope, key string) (Value, error) {
	var (
		raw       string
		v         Value
		expiresAt sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, created_at, expires_at FROM context_values WHERE scope = ? AND key = ?`,
		scope.Key(), key).Scan(&raw, &v.CreatedAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Value{}, fmt.Errorf("%w: %s/%s", ErrKeyNotFound, scope.Key(), key)
		}
		return Value{}, fmt.Errorf("%w: %s/%s: %v", ErrLoadFailed, scope.Key(), key, err)
	}

	v.Value = []byte(raw)
	if expiresAt.Valid {
		exp := expiresAt.Int64
		v.ExpiresAt = &exp
	}
	return v, nil
}

func (s *sqliteStore) Save(ctx context.Context, scope Scope, key string, value Value) error {
	if !scope.Valid() {
		return fmt.Errorf("%w: scope %q", ErrInvalidKey, scope.Key())
	}
	if key == "" {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	var expiresAt sql.NullInt64
	if value.ExpiresAt != nil {
		expiresAt = sql.NullInt64{Int64: *value.ExpiresAt, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO context_values (scope, key, value, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(scope, key) DO UPDATE SET
		   value = excluded.value,
		   created_at = excluded.created_at,
		   expires_at = excluded.expires_at`,
		scope.Key(), key, string(value.Value), value.CreatedAt, expiresAt)
	if err != nil {
		return fmt.Errorf("%w: %s/%s: %v", ErrSaveFailed, scope.Key(), key, err)
	}
	return nil
}

func (s *sqliteStore) Delete(ctx context.Context, scope Scope, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM context_values WHERE scope = ? AND key = ?`, scope.Key(), key)
	if err != nil {
		return fmt.Errorf("delete failed: %s/%s: %w", scope.Key(), key, err)
	}
	return nil
}

func (s *sqliteStore) Sweep(ctx context.Context, now int64) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM context_values WHERE expires_at IS NOT NULL AND expires_at <= ?`, now)
	if err != nil {
		return 0, fmt.Errorf("sweep: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
