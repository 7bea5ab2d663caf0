// Package logging builds the slog logger used across shelf. Console output
// goes to stderr because stdout carries the MCP stream. An optional file
// sink rotates through lumberjack.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger construction. Zero values mean INFO level, text
// format and no file.
type Options struct {
	Level  string
	Format string // "text" or "json"
	File   string // optional path for rotated JSON logs
}

// New returns a logger and a closer for the file sink (a no-op when no
// file is configured).
func New(opts Options) (*slog.Logger, io.Closer) {
	return newLogger(opts, os.Stderr)
}

func newLogger(opts Options, console io.Writer) (*slog.Logger, io.Closer) {
	lvl := ParseLevel(opts.Level)
	hopts := &slog.HandlerOptions{Level: lvl}

	var consoleHandler slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		consoleHandler = slog.NewJSONHandler(console, hopts)
	} else {
		consoleHandler = slog.NewTextHandler(console, hopts)
	}

	var closer io.Closer = nopCloser{}
	h := consoleHandler
	if file := strings.TrimSpace(opts.File); file != "" {
		w := &lj.Logger{Filename: file, MaxSize: 10, MaxBackups: 3, MaxAge: 28, Compress: true}
		h = multiHandler(consoleHandler, slog.NewJSONHandler(w, hopts))
		closer = w
	}

	return slog.New(h).With(slog.String("app", "shelf")), closer
}

// WithComponent returns a logger with the component attribute pre-set.
func WithComponent(l *slog.Logger, name string) *slog.Logger {
	return l.With(slog.String("component", name))
}

// ParseLevel converts a level name to slog.Level, defaulting to INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// multiHandler fans out log records to multiple handlers.
func multiHandler(handlers ...slog.Handler) slog.Handler { return &multi{hs: handlers} }

type multi struct{ hs []slog.Handler }

func (m *multi) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.hs {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multi) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range m.hs {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *multi) WithAttrs(attrs []slog.Attr) slog.Handler {
	res := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		res[i] = h.WithAttrs(attrs)
	}
	return &multi{hs: res}
}

func (m *multi) WithGroup(name string) slog.Handler {
	res := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		res[i] = h.WithGroup(name)
	}
	return &multi{hs: res}
}
