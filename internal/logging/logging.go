// Package logging builds the slog logger shared by the CLI and the server.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const DefaultLevel = "info"

var levels = map[string]slog.Level{
	"debug":      slog.LevelDebug,
	DefaultLevel: slog.LevelInfo,
	"warn":       slog.LevelWarn,
	"error":      slog.LevelError,
}

// ValidLevels returns valid strings for choosing a log level. Returns the
// default log level first.
func ValidLevels() []string {
	return []string{DefaultLevel, "debug", "error", "warn"}
}

// ParseLevel maps a level name to its slog level. An empty name selects
// DefaultLevel.
func ParseLevel(name string) (slog.Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultLevel
	}
	level, ok := levels[name]
	if !ok {
		return 0, fmt.Errorf("invalid log level %q (valid: %s)", name, strings.Join(ValidLevels(), ", "))
	}
	return level, nil
}

type Options struct {
	// The log level of the logger
	Level string
	// Writers receive every record. No writers discards output.
	Writers []io.Writer
}

// NewLogger constructs a slog logger writing logfmt-style text records.
func NewLogger(opts Options) (*slog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	w := io.Discard
	if len(opts.Writers) > 0 {
		w = io.MultiWriter(opts.Writers...)
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler), nil
}

// Discard is a logger that drops every record.
var Discard = slog.New(slog.NewTextHandler(io.Discard, nil))
