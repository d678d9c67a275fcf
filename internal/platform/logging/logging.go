package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the JSON production logger used by long-running services.
// Unknown levels fall back to info.
func New(service, level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "ts"
	if service != "" {
		cfg.InitialFields = map[string]interface{}{"service": service}
	}
	return cfg.Build()
}

// NewConsole builds a human-readable logger writing to stderr, for CLIs.
func NewConsole(level string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	lvl := zapcore.InfoLevel
	if err := lvl.Set(strings.ToLower(strings.TrimSpace(level))); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
