// Package store persists the comment forest and the vote set as two keyed
// JSON records, the same layout the browser widget keeps in localStorage.
//
// Backends only move opaque bytes (Records); RecordStore owns the encoding
// and the "absent or corrupt means empty" rule on top of any backend.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/comment-widget/services/comments/internal/thread"
)

const (
	KeyComments = "comments"
	KeyVotes    = "ratedComments"
)

// ErrBackendUnavailable is returned while a guarded backend is rejecting calls.
var ErrBackendUnavailable = errors.New("storage backend unavailable")

// Records is a keyed byte store. Get reports ok=false for a missing key.
type Records interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
}

// RecordStore implements thread.Store on top of a Records backend.
type RecordStore struct {
	records Records
	log     *zap.Logger
}

// New wraps records. A nil logger disables logging.
func New(records Records, log *zap.Logger) *RecordStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &RecordStore{records: records, log: log}
}

var _ thread.Store = (*RecordStore)(nil)

func (s *RecordStore) LoadForest(ctx context.Context) ([]*thread.Comment, error) {
	forest, err := load[[]*thread.Comment](ctx, s, KeyComments)
	if err != nil {
		return nil, err
	}
	if forest == nil {
		return []*thread.Comment{}, nil
	}
	return normalize(forest), nil
}

func (s *RecordStore) SaveForest(ctx context.Context, forest []*thread.Comment) error {
	if forest == nil {
		forest = []*thread.Comment{}
	}
	return s.save(ctx, KeyComments, forest)
}

func (s *RecordStore) LoadVotes(ctx context.Context) (thread.VoteSet, error) {
	votes, err := load[thread.VoteSet](ctx, s, KeyVotes)
	if err != nil {
		return nil, err
	}
	if votes == nil {
		return thread.VoteSet{}, nil
	}
	return votes, nil
}

func (s *RecordStore) SaveVotes(ctx context.Context, votes thread.VoteSet) error {
	if votes == nil {
		votes = thread.VoteSet{}
	}
	return s.save(ctx, KeyVotes, votes)
}

// load decodes the record at key. A missing or undecodable record yields
// the zero value; a partially decoded value is never returned.
func load[T any](ctx context.Context, s *RecordStore, key string) (T, error) {
	var zero T
	raw, ok, err := s.records.Get(ctx, key)
	if err != nil {
		return zero, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok || len(raw) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		s.log.Warn("discarding unreadable record",
			zap.String("key", key), zap.Int("bytes", len(raw)), zap.Error(err))
		return zero, nil
	}
	return v, nil
}

func (s *RecordStore) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.records.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// normalize replaces null reply lists and drops null entries, which older
// or hand-edited records may contain.
func normalize(forest []*thread.Comment) []*thread.Comment {
	out := forest[:0]
	for _, c := range forest {
		if c == nil {
			continue
		}
		if c.Replies == nil {
			c.Replies = []*thread.Comment{}
		} else {
			c.Replies = normalize(c.Replies)
		}
		out = append(out, c)
	}
	return out
}
