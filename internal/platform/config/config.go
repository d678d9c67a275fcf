// Package config loads service configuration from an optional YAML file
// (CONFIG_FILE) and environment variables. Environment variables win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type HTTPConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

type GRPCConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

// StoreConfig selects where comments are persisted.
type StoreConfig struct {
	Backend         string        `yaml:"backend" validate:"oneof=memory file badger postgres redis"`
	Path            string        `yaml:"path" validate:"required_if=Backend file,required_if=Backend badger"`
	DatabaseURL     string        `yaml:"database_url" validate:"required_if=Backend postgres"`
	RedisURL        string        `yaml:"redis_url" validate:"required_if=Backend redis"`
	BreakerFailures uint32        `yaml:"breaker_failures" validate:"gte=1"`
	BreakerTimeout  time.Duration `yaml:"breaker_timeout" validate:"gt=0"`
}

// NATSConfig enables the change feed when URL is set.
type NATSConfig struct {
	URL           string        `yaml:"url" validate:"omitempty,url"`
	MaxReconnects int           `yaml:"max_reconnects" validate:"gte=0"`
	ReconnectWait time.Duration `yaml:"reconnect_wait" validate:"gt=0"`
}

// IdentityConfig is the single local user stamped on new comments.
type IdentityConfig struct {
	Author string `yaml:"author"`
	Avatar string `yaml:"avatar"`
}

type AppConfig struct {
	ServiceName string         `yaml:"service_name" validate:"required"`
	Env         string         `yaml:"env"`
	LogLevel    string         `yaml:"log_level"`
	HTTP        HTTPConfig     `yaml:"http"`
	GRPC        GRPCConfig     `yaml:"grpc"`
	Store       StoreConfig    `yaml:"store"`
	NATS        NATSConfig     `yaml:"nats"`
	Identity    IdentityConfig `yaml:"identity"`
}

func (c AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func defaults() AppConfig {
	return AppConfig{
		ServiceName: "comments",
		Env:         "development",
		LogLevel:    "info",
		HTTP:        HTTPConfig{Addr: ":8080"},
		GRPC:        GRPCConfig{Addr: ":9090"},
		Store: StoreConfig{
			Backend:         "badger",
			Path:            "./data",
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		NATS: NATSConfig{MaxReconnects: 5, ReconnectWait: 2 * time.Second},
	}
}

var validate = validator.New()

// Load returns the validated configuration.
func Load() (AppConfig, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return AppConfig{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	setString(&cfg.ServiceName, "SERVICE_NAME")
	setString(&cfg.Env, "APP_ENV")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.HTTP.Addr, "HTTP_ADDR")
	setString(&cfg.GRPC.Addr, "GRPC_ADDR")
	setString(&cfg.Store.Backend, "STORE_BACKEND")
	setString(&cfg.Store.Path, "STORE_PATH")
	setString(&cfg.Store.DatabaseURL, "DATABASE_URL")
	setString(&cfg.Store.RedisURL, "REDIS_URL")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Identity.Author, "AUTHOR_NAME")
	setString(&cfg.Identity.Avatar, "AVATAR_URL")
	if err := setUint32(&cfg.Store.BreakerFailures, "CB_FAILURE_THRESHOLD"); err != nil {
		return AppConfig{}, err
	}
	if err := setDuration(&cfg.Store.BreakerTimeout, "CB_TIMEOUT"); err != nil {
		return AppConfig{}, err
	}
	if err := setInt(&cfg.NATS.MaxReconnects, "NATS_MAX_RECONNECTS"); err != nil {
		return AppConfig{}, err
	}
	if err := setDuration(&cfg.NATS.ReconnectWait, "NATS_RECONNECT_WAIT"); err != nil {
		return AppConfig{}, err
	}

	cfg.Store.Backend = strings.ToLower(cfg.Store.Backend)
	if err := validate.Struct(cfg); err != nil {
		return AppConfig{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setUint32(dst *uint32, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = uint32(n)
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
