package app

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/example/comment-widget/internal/platform/config"
	"github.com/example/comment-widget/services/comments/internal/thread"
)

func testConfig(backend, path string) config.AppConfig {
	return config.AppConfig{
		ServiceName: "comments-test",
		Env:         "development",
		Store: config.StoreConfig{
			Backend:         backend,
			Path:            path,
			BreakerFailures: 5,
			BreakerTimeout:  time.Second,
		},
		Identity: config.IdentityConfig{Author: "Tester"},
	}
}

func TestNew_Memory(t *testing.T) {
	a, err := New(context.Background(), testConfig("memory", ""), zap.NewNop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer a.Close()

	c, outcome, err := a.Manager.AddComment(context.Background(), "hi", "")
	if err != nil || outcome != thread.Applied {
		t.Fatalf("add: outcome=%s err=%v", outcome, err)
	}
	if c.Author != "Tester" {
		t.Fatalf("expected configured author, got %q", c.Author)
	}
	if err := a.Ready(); err != nil {
		t.Fatalf("expected ready, got %v", err)
	}
}

func TestNew_MemoryRejectedInProduction(t *testing.T) {
	cfg := testConfig("memory", "")
	cfg.Env = "production"
	if _, err := New(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Fatal("expected production to reject the memory backend")
	}
}

func TestNew_BadgerPersists(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig("badger", t.TempDir())

	a, err := New(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	root, _, err := a.Manager.AddComment(ctx, "root", "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, _, err := a.Manager.ToggleFavorite(ctx, root.ID); err != nil {
		t.Fatalf("favorite: %v", err)
	}
	a.Close()

	b, err := New(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer b.Close()
	got, ok := b.Manager.Lookup(root.ID)
	if !ok || !got.IsFavorite {
		t.Fatalf("expected persisted favorite, got %+v", got)
	}
}

func TestNew_File(t *testing.T) {
	a, err := New(context.Background(), testConfig("file", t.TempDir()), zap.NewNop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer a.Close()
	if a.Manager.CommentCount() != 0 {
		t.Fatal("expected empty forest")
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	if _, err := New(context.Background(), testConfig("floppy", ""), zap.NewNop()); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestNew_UnreachableNATSDisablesFeed(t *testing.T) {
	cfg := testConfig("memory", "")
	cfg.NATS = config.NATSConfig{URL: "nats://127.0.0.1:19999", ReconnectWait: 10 * time.Millisecond}
	a, err := New(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("expected feed failure to be non-fatal, got %v", err)
	}
	defer a.Close()
}
