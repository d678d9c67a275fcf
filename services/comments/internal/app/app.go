// Package app assembles a comment Manager from configuration: the storage
// backend, the optional NATS change feed and the local identity.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/example/comment-widget/internal/platform/config"
	"github.com/example/comment-widget/internal/platform/db"
	"github.com/example/comment-widget/internal/platform/natsconn"
	"github.com/example/comment-widget/services/comments/internal/events"
	"github.com/example/comment-widget/services/comments/internal/store"
	"github.com/example/comment-widget/services/comments/internal/thread"
)

type App struct {
	Manager *thread.Manager
	Log     *zap.Logger

	breaker *store.BreakerRecords
	closers []func()
}

// New opens the configured backend and loads the comments. Extra options
// are applied after the ones derived from cfg.
func New(ctx context.Context, cfg config.AppConfig, log *zap.Logger, opts ...thread.Option) (*App, error) {
	a := &App{Log: log}

	records, err := a.openRecords(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	base := []thread.Option{
		thread.WithLogger(log),
		thread.WithIdentity(cfg.Identity.Author, cfg.Identity.Avatar),
	}
	if pub := a.openPublisher(cfg); pub != nil {
		base = append(base, thread.WithNotifier(pub))
	}

	m, err := thread.New(ctx, store.New(records, log), append(base, opts...)...)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Manager = m
	return a, nil
}

// Ready reports whether the storage backend is accepting calls.
func (a *App) Ready() error {
	if a.breaker != nil && a.breaker.State() == gobreaker.StateOpen {
		return store.ErrBackendUnavailable
	}
	return nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) openRecords(ctx context.Context, cfg config.AppConfig) (store.Records, error) {
	sc := cfg.Store
	switch sc.Backend {
	case "memory":
		if cfg.IsProduction() {
			return nil, errors.New("in-memory comment store is not allowed in production")
		}
		a.Log.Warn("using in-memory comment store (development only)")
		return store.NewMemoryRecords(), nil

	case "file":
		rec, err := store.NewFileRecords(sc.Path)
		if err != nil {
			return nil, err
		}
		a.Log.Info("comments store: file", zap.String("path", sc.Path))
		return rec, nil

	case "badger":
		bcfg := store.DefaultBadgerConfig(sc.Path)
		bcfg.Logger = a.Log
		rec, err := store.OpenBadger(bcfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() {
			if err := rec.Close(); err != nil {
				a.Log.Warn("close badger", zap.Error(err))
			}
		})
		a.Log.Info("comments store: badger", zap.String("path", sc.Path))
		return rec, nil

	case "postgres":
		pool, err := db.Open(ctx, db.Config{DSN: sc.DatabaseURL}, a.Log)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		rec := store.NewPostgresRecords(pool)
		if err := rec.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		a.Log.Info("comments store: postgres")
		return a.guard("postgres", rec, sc), nil

	case "redis":
		rec := store.NewRedisRecords(sc.RedisURL)
		a.closers = append(a.closers, func() { _ = rec.Close() })
		if err := rec.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.Log.Info("comments store: redis")
		return a.guard("redis", rec, sc), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", sc.Backend)
}

func (a *App) guard(name string, rec store.Records, sc config.StoreConfig) store.Records {
	a.breaker = store.NewBreakerRecords(rec, store.BreakerSettings{
		Name:             name,
		FailureThreshold: sc.BreakerFailures,
		Timeout:          sc.BreakerTimeout,
		Logger:           a.Log,
	})
	return a.breaker
}

// openPublisher connects the change feed. A missing or unreachable NATS
// server only disables the feed.
func (a *App) openPublisher(cfg config.AppConfig) *events.Publisher {
	if cfg.NATS.URL == "" {
		return nil
	}
	nc, err := natsconn.Connect(natsconn.FromConfig(cfg.NATS, cfg.ServiceName, a.Log))
	if err != nil {
		a.Log.Warn("nats unavailable, change feed disabled", zap.Error(err))
		return nil
	}
	a.closers = append(a.closers, func() {
		if err := nc.Drain(); err != nil {
			nc.Close()
		}
	})
	a.Log.Info("change feed enabled", zap.String("url", nc.ConnectedUrl()))
	return events.New(nc, a.Log)
}
