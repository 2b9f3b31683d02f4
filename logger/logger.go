// Package logger builds the structured loggers used by the compiler.
package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ErrUnknownLevel is returned for a level name slog does not know.
var ErrUnknownLevel = errors.New("unknown log level")

// Config holds logger configuration
type Config struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"` // "text" or "json"
	AddSource bool   `yaml:"addSource,omitempty"`
}

// DefaultConfig returns the default logger configuration
func DefaultConfig() Config {
	return Config{Level: "info", Format: "text"}
}

// ParseLevel converts debug, info, warn or error.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w: %q", ErrUnknownLevel, name)
}

// New creates a logger writing to output.
func New(cfg Config, output io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}
	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	case "", "text":
		handler = slog.NewTextHandler(output, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return slog.New(handler), nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// Phase logs the completion of a compilation phase
func Phase(log *slog.Logger, phase string, args ...any) {
	log.Debug("compilation phase complete", append([]any{"phase", phase}, args...)...)
}
