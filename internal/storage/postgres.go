package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"courtyard/pkg/platform/sentinel"
)

// Postgres is the SQL-backed KV. Values live in a single two-column table;
// the JSON documents the gateway writes are opaque to it.
type Postgres struct {
	db *sql.DB
}

// NewPostgres prepares the kv table and returns the store. The caller owns
// the *sql.DB lifecycle.
func NewPostgres(ctx context.Context, db *sql.DB) (*Postgres, error) {
	const schema = `
		CREATE TABLE IF NOT EXISTS courtyard_kv (
			k          TEXT PRIMARY KEY,
			v          BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create kv table: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT v FROM courtyard_kv WHERE k = $1`, namespaced(key)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	defer observeWrite(start)
	_, err := p.db.ExecContext(ctx, upsertQuery, namespaced(key), value)
	return err
}

// SetMulti runs the batch in one transaction so a crash mid-flush never
// leaves a partially applied acceptance on disk.
func (p *Postgres) SetMulti(ctx context.Context, values map[string][]byte) error {
	start := time.Now()
	defer observeWrite(start)

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for key, value := range values {
		if _, err := tx.ExecContext(ctx, upsertQuery, namespaced(key), value); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	_, err := p.db.ExecContext(ctx,
		`DELETE FROM courtyard_kv WHERE k = $1`, namespaced(key))
	return err
}

const upsertQuery = `
	INSERT INTO courtyard_kv (k, v, updated_at)
	VALUES ($1, $2, now())
	ON CONFLICT (k) DO UPDATE SET v = EXCLUDED.v, updated_at = now()`
