// Package events publishes comment mutations to NATS as a change feed.
// Publishing is fire-and-forget: failures are logged and never reach the
// caller.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/comment-widget/services/comments/internal/thread"
)

const (
	SubjectAdded     = "comments.added"
	SubjectRated     = "comments.rated"
	SubjectFavorited = "comments.favorited"

	// SubjectAll matches every change feed subject.
	SubjectAll = "comments.>"
)

// Event is the envelope sent to every comments.* subject.
type Event struct {
	EventID    string         `json:"event_id"`
	EventName  string         `json:"event_name"`
	CommentID  string         `json:"comment_id"`
	ParentID   *string        `json:"parent_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher implements thread.Notifier. A nil pointer and a nil Conn are
// both safe no-op stubs.
type Publisher struct {
	conn Conn
	log  *zap.Logger
	now  func() time.Time
}

var _ thread.Notifier = (*Publisher)(nil)

func New(conn Conn, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{conn: conn, log: log, now: time.Now}
}

func (p *Publisher) Notify(_ context.Context, ev thread.Event) {
	if p == nil || p.conn == nil {
		return
	}
	subject, out := p.envelope(ev)
	if subject == "" {
		p.log.Warn("events: unknown event kind", zap.String("kind", string(ev.Kind)))
		return
	}
	data, err := json.Marshal(out)
	if err != nil {
		p.log.Warn("events: marshal failed", zap.String("event", out.EventName), zap.Error(err))
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		p.log.Warn("events: publish failed", zap.String("subject", subject), zap.Error(err))
	}
}

func (p *Publisher) envelope(ev thread.Event) (string, Event) {
	c := ev.Comment
	out := Event{
		EventID:    uuid.NewString(),
		EventName:  "comment_" + string(ev.Kind),
		CommentID:  c.ID,
		ParentID:   c.ParentID,
		OccurredAt: p.now().UTC(),
	}
	switch ev.Kind {
	case thread.EventAdded:
		out.Properties = map[string]any{"author": c.Author, "length": len([]rune(c.Text))}
		return SubjectAdded, out
	case thread.EventRated:
		out.Properties = map[string]any{"rating": c.Rating}
		return SubjectRated, out
	case thread.EventFavorited:
		out.Properties = map[string]any{"favorite": c.IsFavorite}
		return SubjectFavorited, out
	}
	return "", out
}

// Subscribe delivers decoded change feed events to fn until ctx is done.
func Subscribe(ctx context.Context, nc *nats.Conn, log *zap.Logger, fn func(subject string, ev Event)) error {
	if log == nil {
		log = zap.NewNop()
	}
	sub, err := nc.Subscribe(SubjectAll, func(m *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(m.Data, &ev); err != nil {
			log.Warn("events: invalid payload", zap.String("subject", m.Subject), zap.Error(err))
			return
		}
		fn(m.Subject, ev)
	})
	if err != nil {
		return err
	}
	<-ctx.Done()
	return sub.Unsubscribe()
}
