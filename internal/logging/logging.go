// Package logging builds the zerolog loggers used by the TUI and the CLI.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Console returns a human-readable logger on w, for CLI subcommands.
func Console(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(ParseLevel(level)).
		With().Timestamp().Logger()
}

// File opens path for appending and returns a JSON logger writing to it.
// The terminal belongs to the UI, so the TUI never logs to stderr. The
// returned closer releases the file.
func File(path, level string) (zerolog.Logger, io.Closer, error) {
	if strings.TrimSpace(path) == "" {
		return zerolog.Nop(), io.NopCloser(nil), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}
	logger := zerolog.New(f).Level(ParseLevel(level)).With().Timestamp().Logger()
	return logger, f, nil
}

// ParseLevel maps a config value to a level; unknown values mean info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
