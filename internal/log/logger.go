// Package log wraps log/slog with a per-component logger, shared field names
// and the HTTP middleware that carries a request-scoped logger in the context.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a slog.Logger that stamps every record with its component.
type Logger struct {
	*slog.Logger
	component string
}

type Config struct {
	Level     slog.Level
	Component string
	// JSON selects slog.JSONHandler over the text handler.
	JSON   bool
	Output io.Writer
	// Handler, when set, overrides Level, JSON and Output.
	Handler slog.Handler
}

func DefaultConfig() Config {
	return Config{Level: slog.LevelInfo, Component: ComponentApp, Output: os.Stdout}
}

func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		out := config.Output
		if out == nil {
			out = os.Stdout
		}
		opts := &slog.HandlerOptions{Level: config.Level}
		if config.JSON {
			handler = slog.NewJSONHandler(out, opts)
		} else {
			handler = slog.NewTextHandler(out, opts)
		}
	}
	return &Logger{Logger: slog.New(handler), component: config.Component}
}

// Discard returns a logger that drops every record.
func Discard() *Logger {
	return New(Config{Component: ComponentApp, Output: io.Discard})
}

// ParseLevel maps LOG_LEVEL values to slog levels, defaulting to info.
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

func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), component: l.component}
}

func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger, component: component}
}

func (l *Logger) Component() string { return l.component }

func (l *Logger) emit(ctx context.Context, level slog.Level, msg string, args []any) {
	l.Logger.Log(ctx, level, msg, append([]any{FieldComponent, l.component}, args...)...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.emit(context.Background(), slog.LevelDebug, msg, args)
}

func (l *Logger) Info(msg string, args ...any) {
	l.emit(context.Background(), slog.LevelInfo, msg, args)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.emit(context.Background(), slog.LevelWarn, msg, args)
}

func (l *Logger) Error(msg string, args ...any) {
	l.emit(context.Background(), slog.LevelError, msg, args)
}

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, slog.LevelDebug, msg, args)
}

func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, slog.LevelInfo, msg, args)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, slog.LevelWarn, msg, args)
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, slog.LevelError, msg, args)
}

func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}
