// Package log builds the structured loggers used across movie-meta.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Structured field keys.
const (
	FieldRunID   = "run_id"
	FieldMovie   = "movie"
	FieldField   = "field"
	FieldBackend = "backend"
	FieldOutcome = "outcome"
	FieldGroup   = "group"
	FieldContext = "context"
	FieldError   = "error"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string

	// Writer receives log output; stderr when nil.
	Writer io.Writer

	// Dir, when set, additionally writes each session to a timestamped file.
	Dir string

	// RetentionDays removes session files older than this many days from Dir.
	// Zero keeps everything.
	RetentionDays int
}

// New constructs a slog logger using the provided options. The returned
// close function releases the session file, if any.
func New(opts Options) (*slog.Logger, func() error, error) {
	out := opts.Writer
	if out == nil {
		out = os.Stderr
	}
	closer := func() error { return nil }

	if opts.Dir != "" {
		if opts.RetentionDays > 0 {
			if err := CleanupOldLogs(opts.Dir, opts.RetentionDays); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to clean up old logs: %v\n", err)
			}
		}
		file, err := openSessionFile(opts.Dir)
		if err != nil {
			return nil, nil, err
		}
		out = io.MultiWriter(out, file)
		closer = file.Close
	}

	handlerOpts := &slog.HandlerOptions{Level: parseLevel(opts.Level)}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "text", "console":
		handler = slog.NewTextHandler(out, handlerOpts)
	case "json":
		handler = slog.NewJSONHandler(out, handlerOpts)
	default:
		_ = closer()
		return nil, nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	return slog.New(handler), closer, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// Or returns logger, or a no-op logger when logger is nil.
func Or(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	return logger
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openSessionFile(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	now := time.Now()
	name := fmt.Sprintf("%s.%03d.log", now.Format("2006-01-02_150405"), now.Nanosecond()/1_000_000)
	file, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}

// CleanupOldLogs removes *.log files in dir last modified before the
// retention window. A missing directory is not an error.
func CleanupOldLogs(dir string, retentionDays int) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.log"))
	if err != nil {
		return fmt.Errorf("list log files: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	var firstErr error
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(file); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("remove old log file %s: %w", file, err)
			}
		}
	}
	return firstErr
}
