// Package applog builds the CLI-facing slog.Logger every command in
// this module narrates through, colorized the way nswine wires
// github.com/lmittmann/tint, with an optional appended file sink the
// same way the teacher's own logger supports an optional log file.
package applog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Options configures New. LogFile may be empty to log to stderr only.
type Options struct {
	Level   string
	LogFile string
}

// New builds a slog.Logger writing tint-colorized lines to stderr, and
// plain lines to LogFile when set. The returned closer must be called
// once the logger is no longer needed; it is a no-op when no file was
// opened.
func New(opts Options) (*slog.Logger, func() error, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	var file *os.File
	if opts.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(opts.LogFile), 0o755); err != nil {
			return nil, nil, fmt.Errorf("applog: create log dir: %w", err)
		}
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("applog: open log file: %w", err)
		}
		file = f
	}

	handlers := []slog.Handler{
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		}),
	}
	if file != nil {
		handlers = append(handlers, slog.NewTextHandler(file, &slog.HandlerOptions{Level: level}))
	}

	logger := slog.New(newFanOutHandler(handlers))

	closer := func() error {
		if file == nil {
			return nil
		}
		return file.Close()
	}

	return logger, closer, nil
}

func parseLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("applog: invalid log level: %s", value)
	}
}
