package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"budgetbuddy/internal/storage"

	_ "modernc.org/sqlite"
)

const (
	getQuery    = `SELECT value FROM kv WHERE key = ?`
	deleteQuery = `DELETE FROM kv WHERE key = ?`
	upsertQuery = `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
)

// Repository is a key-value store backed by a single SQLite table.
type Repository struct {
	db     *sql.DB
	closed atomic.Bool
	now    func() time.Time
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Run migrations before the main connection is handed out
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer connection avoids SQLITE_BUSY between our own statements
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Repository{db: db, now: time.Now}, nil
}

func (r *Repository) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if r.closed.Load() {
		return nil, false, storage.ErrUnavailable
	}
	var value []byte
	err := r.db.QueryRowContext(ctx, getQuery, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (r *Repository) Set(ctx context.Context, key string, value []byte) error {
	if r.closed.Load() {
		return storage.ErrUnavailable
	}
	if value == nil {
		value = []byte{}
	}
	if _, err := r.db.ExecContext(ctx, upsertQuery, key, value, r.now().UTC()); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	slog.DebugContext(ctx, "Value saved to SQLite", "key", key, "bytes", len(value))
	return nil
}

func (r *Repository) Delete(ctx context.Context, key string) error {
	if r.closed.Load() {
		return storage.ErrUnavailable
	}
	if _, err := r.db.ExecContext(ctx, deleteQuery, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

var _ storage.KeyValueStore = (*Repository)(nil)
