package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS comment_records (
    key        TEXT PRIMARY KEY,
    value      BYTEA NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// PostgresRecords persists records in a key/value table.
type PostgresRecords struct {
	pool *pgxpool.Pool
}

// NewPostgresRecords creates a store backed by Postgres.
func NewPostgresRecords(pool *pgxpool.Pool) *PostgresRecords {
	return &PostgresRecords{pool: pool}
}

// EnsureSchema creates the records table if it does not exist.
func (s *PostgresRecords) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresSchema)
	return err
}

func (s *PostgresRecords) Get(ctx context.Context, key string) ([]byte, bool, error) {
	const q = `SELECT value FROM comment_records WHERE key = $1`
	var value []byte
	err := s.pool.QueryRow(ctx, q, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *PostgresRecords) Put(ctx context.Context, key string, value []byte) error {
	const q = `INSERT INTO comment_records (key, value)
	           VALUES ($1, $2)
	           ON CONFLICT (key) DO UPDATE SET
	             value = EXCLUDED.value,
	             updated_at = now()`
	_, err := s.pool.Exec(ctx, q, key, value)
	return err
}
