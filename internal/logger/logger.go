package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
)

type ctxKey struct{}

// Handler selects the slog handler used for output.
type Handler int

const (
	JSONHandler Handler = iota
	TextHandler
	DevHandler
)

// ParseHandler maps a config value to a Handler. Unknown values fall back
// to the dev handler.
func ParseHandler(s string) Handler {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return JSONHandler
	case "txt", "text":
		return TextHandler
	default:
		return DevHandler
	}
}

// ParseLevel maps a config value to a slog level. Unknown values are info.
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

type Opt func(o *opts)

type opts struct {
	writer  io.Writer
	level   slog.Level
	handler Handler
}

func WithLevel(lvl slog.Level) Opt {
	return func(o *opts) {
		o.level = lvl
	}
}

func WithWriter(w io.Writer) Opt {
	return func(o *opts) {
		o.writer = w
	}
}

func WithHandler(h Handler) Opt {
	return func(o *opts) {
		o.handler = h
	}
}

// New builds a logger. Defaults are the dev handler at info level on stderr.
func New(options ...Opt) *slog.Logger {
	o := &opts{
		writer:  os.Stderr,
		level:   slog.LevelInfo,
		handler: DevHandler,
	}
	for _, apply := range options {
		apply(o)
	}

	switch o.handler {
	case DevHandler:
		return slog.New(tint.NewHandler(o.writer, &tint.Options{
			Level:      o.level,
			TimeFormat: "[15:04:05.000]",
		}))
	case TextHandler:
		return slog.New(slog.NewTextHandler(o.writer, &slog.HandlerOptions{Level: o.level}))
	default:
		return slog.New(slog.NewJSONHandler(o.writer, &slog.HandlerOptions{Level: o.level}))
	}
}

// Void discards everything.
func Void() *slog.Logger {
	return New(WithWriter(io.Discard))
}

// With stores l in ctx.
func With(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From returns the logger stored in ctx, or a default logger if none was
// stored.
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return New()
}
