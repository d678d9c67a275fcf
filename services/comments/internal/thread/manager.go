// Package thread holds the comment forest and every operation on it:
// posting and replying, voting, favorites, and the sorted/filtered view.
package thread

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store persists the forest and the vote set as two independent records.
// Absent or unreadable records load as empty collections; only backend
// failures are reported as errors.
type Store interface {
	LoadForest(ctx context.Context) ([]*Comment, error)
	SaveForest(ctx context.Context, forest []*Comment) error
	LoadVotes(ctx context.Context) (VoteSet, error)
	SaveVotes(ctx context.Context, votes VoteSet) error
}

type EventKind string

const (
	EventAdded     EventKind = "added"
	EventRated     EventKind = "rated"
	EventFavorited EventKind = "favorited"
)

// Event describes an applied mutation. Comment carries no replies.
type Event struct {
	Kind    EventKind
	Comment Comment
}

// Notifier is told about every applied mutation after it was persisted.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

type Option func(*Manager)

func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithIdentity sets the author name and avatar stamped on new comments.
func WithIdentity(author, avatar string) Option {
	return func(m *Manager) {
		if strings.TrimSpace(author) != "" {
			m.author = author
		}
		if strings.TrimSpace(avatar) != "" {
			m.avatar = avatar
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) { m.newID = fn }
}

func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// Manager owns the in-memory forest. Every exported method holds the
// manager lock for its whole duration, so operations never interleave.
type Manager struct {
	mu sync.Mutex

	store    Store
	log      *zap.Logger
	notifier Notifier
	now      func() time.Time
	newID    func() string
	author   string
	avatar   string

	comments      []*Comment
	votes         VoteSet
	sort          SortOption
	favoritesOnly bool
}

// New loads the forest and the vote set from store.
func New(ctx context.Context, store Store, opts ...Option) (*Manager, error) {
	m := &Manager{
		store:  store,
		log:    zap.NewNop(),
		now:    time.Now,
		newID:  newCommentID,
		author: DefaultAuthor,
		avatar: DefaultAvatar,
		sort:   SortOption{Field: SortByDate, Direction: Descending},
	}
	for _, opt := range opts {
		opt(m)
	}

	forest, err := store.LoadForest(ctx)
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	votes, err := store.LoadVotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load votes: %w", err)
	}
	if forest == nil {
		forest = []*Comment{}
	}
	if votes == nil {
		votes = VoteSet{}
	}
	m.comments = forest
	m.votes = votes

	m.log.Info("comments loaded",
		zap.Int("count", CountComments(forest)),
		zap.Int("votes", len(votes)))
	return m, nil
}

// newCommentID returns a UUIDv7, which sorts by creation time and stays
// unique for submissions within the same millisecond.
func newCommentID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// AddComment posts text as a new top-level comment, or as the last reply
// of parentID when it is not empty. A missing parent drops the comment.
func (m *Manager) AddComment(ctx context.Context, text, parentID string) (Comment, Outcome, error) {
	if strings.TrimSpace(text) == "" {
		return Comment{}, RejectedEmpty, nil
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return Comment{}, RejectedTooLong, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := &Comment{
		ID:      m.newID(),
		Author:  m.author,
		Avatar:  m.avatar,
		Text:    text,
		Date:    m.now().UTC(),
		Replies: []*Comment{},
	}

	if parentID != "" {
		parent := FindCommentByID(m.comments, parentID)
		if parent == nil {
			m.log.Debug("reply target not found", zap.String("parent_id", parentID))
			return Comment{}, RejectedParentNotFound, nil
		}
		pid := parentID
		c.ParentID = &pid
		parent.Replies = append(parent.Replies, c)
	} else {
		m.comments = append(m.comments, c)
	}

	snapshot := *c.clone()
	if err := m.saveForest(ctx); err != nil {
		return snapshot, Applied, err
	}
	m.notify(ctx, EventAdded, c)
	return snapshot, Applied, nil
}

// ChangeRating adds or subtracts one point. Each comment accepts exactly
// one rating action, whatever its direction.
func (m *Manager) ChangeRating(ctx context.Context, id string, increment bool) (Comment, Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.votes[id] {
		return Comment{}, RejectedAlreadyVoted, nil
	}
	c := FindCommentByID(m.comments, id)
	if c == nil {
		return Comment{}, RejectedNotFound, nil
	}

	if increment {
		c.Rating++
	} else {
		c.Rating--
	}
	m.votes[id] = true

	snapshot := *c.clone()
	err := errors.Join(m.saveForest(ctx), m.saveVotes(ctx))
	if err != nil {
		return snapshot, Applied, err
	}
	m.notify(ctx, EventRated, c)
	return snapshot, Applied, nil
}

// ToggleFavorite flips the favorite flag of id.
func (m *Manager) ToggleFavorite(ctx context.Context, id string) (Comment, Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := FindCommentByID(m.comments, id)
	if c == nil {
		return Comment{}, RejectedNotFound, nil
	}
	c.IsFavorite = !c.IsFavorite

	snapshot := *c.clone()
	if err := m.saveForest(ctx); err != nil {
		return snapshot, Applied, err
	}
	m.notify(ctx, EventFavorited, c)
	return snapshot, Applied, nil
}

// SetSortOption flips the direction when field is already selected and
// otherwise selects field in descending order.
func (m *Manager) SetSortOption(field SortField) SortOption {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sort.Field == field {
		if m.sort.Direction == Ascending {
			m.sort.Direction = Descending
		} else {
			m.sort.Direction = Ascending
		}
	} else {
		m.sort = SortOption{Field: field, Direction: Descending}
	}
	return m.sort
}

func (m *Manager) ToggleShowFavorites() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.favoritesOnly = !m.favoritesOnly
	return m.favoritesOnly
}

// SortedComments returns the forest as currently filtered and sorted.
// The result is a copy; the stored forest is never reordered.
func (m *Manager) SortedComments() []*Comment {
	m.mu.Lock()
	defer m.mu.Unlock()

	view := make([]*Comment, len(m.comments))
	copy(view, m.comments)
	if m.favoritesOnly {
		view = filterFavorites(view)
	}
	return sortComments(view, m.sort)
}

// CommentCount counts comments at every depth, ignoring the view state.
func (m *Manager) CommentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return CountComments(m.comments)
}

// IsLocked reports whether id already received its rating action.
func (m *Manager) IsLocked(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.votes[id]
}

func (m *Manager) IsFavoritesOnly() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.favoritesOnly
}

func (m *Manager) SortOption() SortOption {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sort
}

// Lookup returns a copy of the comment with the given id.
func (m *Manager) Lookup(id string) (Comment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := FindCommentByID(m.comments, id)
	if c == nil {
		return Comment{}, false
	}
	return *c.clone(), true
}

func (m *Manager) saveForest(ctx context.Context) error {
	if err := m.store.SaveForest(ctx, m.comments); err != nil {
		m.log.Error("save comments failed", zap.Error(err))
		return fmt.Errorf("save comments: %w", err)
	}
	return nil
}

func (m *Manager) saveVotes(ctx context.Context) error {
	if err := m.store.SaveVotes(ctx, m.votes); err != nil {
		m.log.Error("save votes failed", zap.Error(err))
		return fmt.Errorf("save votes: %w", err)
	}
	return nil
}

func (m *Manager) notify(ctx context.Context, kind EventKind, c *Comment) {
	if m.notifier == nil {
		return
	}
	ev := Event{Kind: kind, Comment: *c}
	ev.Comment.ParentID = copyID(c.ParentID)
	ev.Comment.Replies = nil
	m.notifier.Notify(ctx, ev)
}
