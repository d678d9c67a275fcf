// Package db opens the Postgres pool used by the postgres comment backend.
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Config sizes the pool. Zero fields take defaults suited to one upsert
// per save.
type Config struct {
	DSN            string
	MaxConns       int32
	ConnectTimeout time.Duration
}

// Open connects and pings within ConnectTimeout. The pool is closed again
// when the ping fails.
func Open(ctx context.Context, cfg Config, log *zap.Logger) (*pgxpool.Pool, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pc, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping %s: %w", pc.ConnConfig.Host, err)
	}
	log.Info("postgres connected",
		zap.String("host", pc.ConnConfig.Host),
		zap.String("database", pc.ConnConfig.Database),
		zap.Int32("max_conns", pc.MaxConns))
	return pool, nil
}

func poolConfig(cfg Config) (*pgxpool.Config, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	pc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pc.MaxConns = 4
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = 1
	pc.MaxConnIdleTime = 5 * time.Minute
	pc.HealthCheckPeriod = 30 * time.Second
	return pc, nil
}
