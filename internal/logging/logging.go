// Package logging builds the zerolog loggers used by the binaries.
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

// EnvLogLevel overrides the default level when set.
const EnvLogLevel = "GUESSTHESONG_LOG_LEVEL"

// fileTimeFormat names one log file per process start.
const fileTimeFormat = "2006-01-02_15-04-05.000000"

// New returns a logger writing JSON lines to w.
func New(w io.Writer, app string, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Str("app", app).Logger().Level(level)
}

// NewConsole returns a human-readable logger on stderr.
func NewConsole(app string, level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return New(output, app, level)
}

// NewFile creates dir if needed and logs into a fresh timestamped file there.
// The returned closer closes the file.
func NewFile(dir, app string, level zerolog.Level) (zerolog.Logger, io.Closer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	name := filepath.Join(dir, time.Now().Format(fileTimeFormat)+".log")
	f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to open log file %s: %w", name, err)
	}
	return New(f, app, level), f, nil
}

// LevelFromEnv returns the level named by EnvLogLevel, or def.
func LevelFromEnv(def zerolog.Level) zerolog.Level {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		return lvl
	}
	return def
}

// ParseLevel maps a level name to a zerolog level.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}
