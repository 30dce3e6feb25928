package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// GetCache returns the cached bytes for key, or nil when missing or expired.
func (db *DB) GetCache(ctx context.Context, key string) ([]byte, error) {
	type cacheRow struct {
		ExpiresAt sql.NullTime `db:"expires_at"`
		Data      []byte       `db:"data"`
	}

	var row cacheRow
	err := db.GetContext(ctx, &row, db.Rebind("SELECT data, expires_at FROM cache WHERE cache_key = ?"), key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if row.ExpiresAt.Valid && time.Now().After(row.ExpiresAt.Time) {
		_, _ = db.ExecContext(ctx, db.Rebind("DELETE FROM cache WHERE cache_key = ?"), key)
		return nil, nil
	}

	return row.Data, nil
}

// SetCache stores data under key. A zero ttl never expires.
func (db *DB) SetCache(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	var expiresAt *time.Time
	if ttl > 0 {
		t := time.Now().UTC().Add(ttl)
		expiresAt = &t
	}

	_, err := db.ExecContext(ctx, db.Rebind(`
		INSERT INTO cache (cache_key, data, expires_at) VALUES (?, ?, ?)
		ON CONFLICT (cache_key) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at
	`), key, data, expiresAt)
	return err
}

func (db *DB) ClearCache(ctx context.Context) error {
	_, err := db.ExecContext(ctx, "DELETE FROM cache")
	return err
}
