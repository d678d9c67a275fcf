package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv blanks every variable Load reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "SERVICE_NAME", "APP_ENV", "LOG_LEVEL", "HTTP_ADDR", "GRPC_ADDR",
		"STORE_BACKEND", "STORE_PATH", "DATABASE_URL", "REDIS_URL", "NATS_URL",
		"AUTHOR_NAME", "AVATAR_URL", "CB_FAILURE_THRESHOLD", "CB_TIMEOUT",
		"NATS_MAX_RECONNECTS", "NATS_RECONNECT_WAIT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServiceName != "comments" || cfg.HTTP.Addr != ":8080" || cfg.GRPC.Addr != ":9090" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Store.Backend != "badger" || cfg.Store.Path != "./data" {
		t.Fatalf("unexpected store defaults: %+v", cfg.Store)
	}
	if cfg.IsProduction() {
		t.Fatal("expected development by default")
	}
	if cfg.NATS.URL != "" || cfg.NATS.MaxReconnects != 5 || cfg.NATS.ReconnectWait != 2*time.Second {
		t.Fatalf("unexpected nats defaults: %+v", cfg.NATS)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "Redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("CB_FAILURE_THRESHOLD", "3")
	t.Setenv("CB_TIMEOUT", "5s")
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTHOR_NAME", "Ann")
	t.Setenv("NATS_URL", "nats://nats:4222")
	t.Setenv("NATS_MAX_RECONNECTS", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Backend != "redis" || cfg.Store.BreakerFailures != 3 || cfg.Store.BreakerTimeout != 5*time.Second {
		t.Fatalf("unexpected store config: %+v", cfg.Store)
	}
	if !cfg.IsProduction() || cfg.Identity.Author != "Ann" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.NATS.URL != "nats://nats:4222" || cfg.NATS.MaxReconnects != 0 {
		t.Fatalf("unexpected nats config: %+v", cfg.NATS)
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "comments.yaml")
	body := []byte(`
service_name: widget
log_level: debug
store:
  backend: file
  path: /var/lib/widget
  breaker_timeout: 1m
identity:
  author: From File
`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServiceName != "widget" || cfg.LogLevel != "warn" {
		t.Fatalf("expected yaml service and env level, got %+v", cfg)
	}
	if cfg.Store.Backend != "file" || cfg.Store.Path != "/var/lib/widget" || cfg.Store.BreakerTimeout != time.Minute {
		t.Fatalf("unexpected store config: %+v", cfg.Store)
	}
	if cfg.Store.BreakerFailures != 5 {
		t.Fatalf("expected default breaker failures kept, got %d", cfg.Store.BreakerFailures)
	}
	if cfg.Identity.Author != "From File" {
		t.Fatalf("unexpected identity %+v", cfg.Identity)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown backend":    {"STORE_BACKEND": "sqlite"},
		"postgres no dsn":    {"STORE_BACKEND": "postgres"},
		"redis no url":       {"STORE_BACKEND": "redis"},
		"bad threshold":      {"CB_FAILURE_THRESHOLD": "many"},
		"bad timeout":        {"CB_TIMEOUT": "soon"},
		"missing file":       {"CONFIG_FILE": "/does/not/exist.yaml"},
		"zero threshold":     {"CB_FAILURE_THRESHOLD": "0"},
		"malformed nats url": {"NATS_URL": "not a url"},
		"negative reconnect": {"NATS_MAX_RECONNECTS": "-2"},
		"bad reconnect wait": {"NATS_RECONNECT_WAIT": "later"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
