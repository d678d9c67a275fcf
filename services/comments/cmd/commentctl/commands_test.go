package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/example/comment-widget/internal/platform/config"
	"github.com/example/comment-widget/services/comments/internal/app"
)

// fileOpener reopens the same file store for every command, like separate
// invocations of the binary would.
func fileOpener(dir string) opener {
	return func(ctx context.Context, log *zap.Logger) (*app.App, error) {
		return app.New(ctx, config.AppConfig{
			ServiceName: "commentctl-test",
			Store:       config.StoreConfig{Backend: "file", Path: dir},
			Identity:    config.IdentityConfig{Author: "Ann"},
		}, log)
	}
}

func execute(t *testing.T, open opener, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(open)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommands_Flow(t *testing.T) {
	open := fileOpener(t.TempDir())

	out, err := execute(t, open, "add", "first", "comment")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	rootID := strings.TrimSpace(out)
	if rootID == "" {
		t.Fatal("expected the new id on stdout")
	}

	if _, err := execute(t, open, "add", "--parent", rootID, "a reply"); err != nil {
		t.Fatalf("reply: %v", err)
	}
	if out, err := execute(t, open, "up", rootID); err != nil || !strings.Contains(out, "rating 1") {
		t.Fatalf("up: out=%q err=%v", out, err)
	}
	if out, err := execute(t, open, "fav", rootID); err != nil || !strings.Contains(out, "added to favorites") {
		t.Fatalf("fav: out=%q err=%v", out, err)
	}

	out, err = execute(t, open, "count")
	if err != nil || strings.TrimSpace(out) != "2" {
		t.Fatalf("count: out=%q err=%v", out, err)
	}

	out, err = execute(t, open, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"first comment", "a reply", "★", "(rated)", "Ответ на комментарий Ann"} {
		if !strings.Contains(out, want) {
			t.Fatalf("list output missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, open, "list", "--favorites")
	if err != nil {
		t.Fatalf("list favorites: %v", err)
	}
	if !strings.Contains(out, "first comment") || strings.Contains(out, "a reply") {
		t.Fatalf("expected only the favorite root:\n%s", out)
	}
}

func TestCommands_RejectionsFail(t *testing.T) {
	open := fileOpener(t.TempDir())
	id, err := execute(t, open, "add", "x")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	id = strings.TrimSpace(id)

	if _, err := execute(t, open, "down", id); err != nil {
		t.Fatalf("down: %v", err)
	}
	cases := [][]string{
		{"add", "   "},
		{"add", "--parent", "ghost", "reply"},
		{"up", id},
		{"fav", "ghost"},
	}
	for _, args := range cases {
		if _, err := execute(t, open, args...); !errors.Is(err, errRejected) {
			t.Fatalf("%v: expected rejection, got %v", args, err)
		}
	}
}

func TestList_SortFlags(t *testing.T) {
	open := fileOpener(t.TempDir())
	if _, err := execute(t, open, "add", "older"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, err := execute(t, open, "add", "newer"); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, open, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.Index(out, "newer") > strings.Index(out, "older") {
		t.Fatalf("expected newest first by default:\n%s", out)
	}

	out, err = execute(t, open, "list", "--sort", "date", "--asc")
	if err != nil {
		t.Fatalf("list asc: %v", err)
	}
	if !strings.Contains(out, "sort date asc") || strings.Index(out, "older") > strings.Index(out, "newer") {
		t.Fatalf("expected oldest first:\n%s", out)
	}

	if _, err := execute(t, open, "list", "--sort", "popularity"); err == nil {
		t.Fatal("expected unknown sort field to fail")
	}
}
