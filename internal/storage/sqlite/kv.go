// Package sqlite implements storage.KV on a single SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"contable/internal/storage"
)

// KV stores one row per collection key.
type KV struct {
	db *sqlx.DB
}

// Open creates the database file if needed and applies migrations.
func Open(dbPath string) (*KV, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serialises writes anyway
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &KV{db: db}, nil
}

func (k *KV) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := k.db.GetContext(ctx, &payload, `SELECT payload FROM collections WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", key, err)
	}
	return payload, nil
}

func (k *KV) Put(ctx context.Context, key string, value []byte) error {
	_, err := k.db.ExecContext(ctx, `
		INSERT INTO collections (key, payload, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (k *KV) Ping(ctx context.Context) error {
	return k.db.PingContext(ctx)
}

func (k *KV) Close() error {
	if k.db != nil {
		return k.db.Close()
	}
	return nil
}
