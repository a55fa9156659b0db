package logging

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// New returns the logger used by every command. On a terminal it writes
// human-readable text; when stderr is redirected (cron, systemd) it writes
// JSON lines.
func New(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return newWithWriter(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), level)
}

func newWithWriter(w io.Writer, text bool, level slog.Level) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if text {
		handler = slog.NewTextHandler(w, options)
	} else {
		handler = slog.NewJSONHandler(w, options)
	}
	return slog.New(handler)
}

// Discard returns a logger that drops everything. Used in tests and as a
// nil-safe default.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
