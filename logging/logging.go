// Package logging builds the slog loggers used by namecouncil.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Custom slog levels for graduated verbosity.
// slog.LevelDebug is -4; lower values are more verbose.
const (
	// LevelTrace is used for -vv: prompts and agent text.
	LevelTrace slog.Level = slog.LevelDebug - 4 // -8
)

// Level maps a -v count to a minimum level.
func Level(verbosity int) slog.Level {
	switch {
	case verbosity >= 2:
		return LevelTrace
	case verbosity == 1:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// New returns a text logger writing to w.
func New(w io.Writer, verbosity int) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       Level(verbosity),
		ReplaceAttr: levelNames,
	}))
}

// NewFile returns a logger that writes to both w and a timestamped file
// under dir, the file path, and a cleanup function that closes the file.
// If the file cannot be created the logger writes to w only.
func NewFile(w io.Writer, dir string, verbosity int) (*slog.Logger, string, func()) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return New(w, verbosity), "", func() {}
	}

	logFile := filepath.Join(dir, time.Now().Format("2006-01-02T15-04-05")+".log")
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return New(w, verbosity), "", func() {}
	}

	return New(io.MultiWriter(w, f), verbosity), logFile, func() { f.Close() }
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// levelNames prints LevelTrace as TRACE instead of DEBUG-4.
func levelNames(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl <= LevelTrace {
		a.Value = slog.StringValue("TRACE")
	}
	return a
}
