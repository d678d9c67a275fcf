package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":        zapcore.InfoLevel,
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q): expected %s, got %s", in, want, got)
		}
	}
}

func TestNew(t *testing.T) {
	log, err := New("comments", "debug")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !log.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("expected debug enabled")
	}
	_ = log.Sync()
}
