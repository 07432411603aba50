// Package logging builds the run logger: a slog text handler that writes to
// the log file and to stdout at once.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options configures New.
type Options struct {
	// File is appended to. Empty means stdout only.
	File  string
	Level string
	// Stdout defaults to os.Stdout.
	Stdout io.Writer
}

// ParseLevel maps debug, info, warn and error (case-insensitive) to a level.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		lvl = slog.LevelInfo
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return 0, fmt.Errorf("logging: unknown level %q", s)
	}
	return lvl, nil
}

// New returns the logger and a func that closes the log file.
func New(opts Options) (*slog.Logger, func() error, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	w := stdout
	closer := func() error { return nil }
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("logging: open %s: %w", opts.File, err)
		}
		w = io.MultiWriter(f, stdout)
		closer = f.Close
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	return logger, closer, nil
}
