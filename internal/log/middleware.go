package log

import (
	"context"
	"log/slog"
	"net/http"
)

type ctxKey struct{}

// Middleware stores logger in every request context so handlers can reach
// it through FromContext.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the request logger, or one backed by slog.Default when
// the context carries none.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok && l != nil {
		return l
	}
	return &Logger{Logger: slog.Default(), component: "unknown"}
}

// RequestIDMiddleware tags the context logger with the id returned by
// requestID. It must run after Middleware.
func RequestIDMiddleware(requestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			tagged := FromContext(ctx).With(FieldRequestID, requestID(r))
			next.ServeHTTP(w, r.WithContext(NewContext(ctx, tagged)))
		})
	}
}

// StructuredLogger emits the access and error records shared by all
// handlers, so every request is logged with the same field set.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
		WithClientIP(clientIP)
	sl.logger.DebugContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// LogHTTPEnd picks the level from the status: warn for 4xx, error for 5xx.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)
	sl.logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogFlagged records a request singled out before reaching a handler, such
// as a rate-limited client or a scanner probe.
func (sl *StructuredLogger) LogFlagged(ctx context.Context, msg, reason string, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
		WithClientIP(clientIP)
	fields[FieldReason] = reason
	sl.logger.WarnContext(ctx, msg, fields.ToSlice()...)
}

func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	fields = fields.WithError(err).WithOperation(operation)
	sl.logger.ErrorContext(ctx, msg, fields.ToSlice()...)
}
