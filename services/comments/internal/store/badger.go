package store

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// BadgerConfig holds configuration for the embedded BadgerDB backend.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in RAM. Useful for tests.
	InMemory bool

	// SyncWrites fsyncs every write before Put returns.
	SyncWrites bool

	// Logger receives BadgerDB's internal log lines. Nil disables them.
	Logger *zap.Logger
}

// DefaultBadgerConfig returns a durable configuration rooted at path.
func DefaultBadgerConfig(path string) BadgerConfig {
	return BadgerConfig{Path: path, SyncWrites: true}
}

// badgerLogger adapts zap to BadgerDB's Logger interface.
type badgerLogger struct {
	s *zap.SugaredLogger
}

func (l badgerLogger) Errorf(format string, args ...interface{})   { l.s.Errorf(format, args...) }
func (l badgerLogger) Warningf(format string, args ...interface{}) { l.s.Warnf(format, args...) }
func (l badgerLogger) Infof(format string, args ...interface{})    { l.s.Infof(format, args...) }
func (l badgerLogger) Debugf(format string, args ...interface{})   { l.s.Debugf(format, args...) }

// BadgerRecords stores each record under its key in a BadgerDB instance.
type BadgerRecords struct {
	db *badger.DB
}

// OpenBadger opens (and creates if needed) the database described by cfg.
// Caller must call Close when done.
func OpenBadger(cfg BadgerConfig) (*BadgerRecords, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(badgerLogger{s: cfg.Logger.Named("badger").Sugar()})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &BadgerRecords{db: db}, nil
}

func (b *BadgerRecords) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (b *BadgerRecords) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

func (b *BadgerRecords) Close() error {
	return b.db.Close()
}
