// Package observability provides structured logging and metrics.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

// requestIDKey is the context key for request IDs.
const requestIDKey contextKey = "requestID"

// Logger defines the interface for structured logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// Context variants include the request ID stored in ctx, if any.
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)

	// With returns a new Logger with the given attributes.
	With(args ...any) Logger
	// WithComponent returns a new Logger with the component field set.
	WithComponent(name string) Logger

	// Slog returns the underlying *slog.Logger.
	Slog() *slog.Logger
}

// Config holds configuration for the logger.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// Format is the output format (json, text).
	Format string
	// Output is the destination for logs (defaults to os.Stdout).
	Output io.Writer
	// AddSource adds source file and line to log entries.
	AddSource bool
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "json",
		Output: os.Stdout,
	}
}

// ConfigFromEnv creates a Config from environment variables.
// IPMENTOR_LOG_LEVEL: debug, info, warn, error (default: info)
// IPMENTOR_LOG_FORMAT: json, text (default: json)
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if level := os.Getenv("IPMENTOR_LOG_LEVEL"); level != "" {
		cfg.Level = level
	}
	if format := os.Getenv("IPMENTOR_LOG_FORMAT"); format != "" {
		cfg.Format = format
	}
	return cfg
}

type defaultLogger struct {
	slogger *slog.Logger
}

// NewLogger creates a new Logger with the given configuration.
func NewLogger(cfg Config) Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(cfg.Output, opts)
	default:
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}

	return &defaultLogger{slogger: slog.New(handler)}
}

// NewLoggerFromSlog creates a Logger wrapping an existing *slog.Logger.
func NewLoggerFromSlog(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return &defaultLogger{slogger: l}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

func (l *defaultLogger) Debug(msg string, args ...any) { l.slogger.Debug(msg, args...) }
func (l *defaultLogger) Info(msg string, args ...any)  { l.slogger.Info(msg, args...) }
func (l *defaultLogger) Warn(msg string, args ...any)  { l.slogger.Warn(msg, args...) }
func (l *defaultLogger) Error(msg string, args ...any) { l.slogger.Error(msg, args...) }

func (l *defaultLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.slogger.DebugContext(ctx, msg, appendContextFields(ctx, args)...)
}

func (l *defaultLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.slogger.InfoContext(ctx, msg, appendContextFields(ctx, args)...)
}

func (l *defaultLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.slogger.WarnContext(ctx, msg, appendContextFields(ctx, args)...)
}

func (l *defaultLogger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.slogger.ErrorContext(ctx, msg, appendContextFields(ctx, args)...)
}

func (l *defaultLogger) With(args ...any) Logger {
	return &defaultLogger{slogger: l.slogger.With(args...)}
}

func (l *defaultLogger) WithComponent(name string) Logger {
	return l.With("component", name)
}

func (l *defaultLogger) Slog() *slog.Logger { return l.slogger }

func appendContextFields(ctx context.Context, args []any) []any {
	if ctx == nil {
		return args
	}
	if reqID := RequestIDFromContext(ctx); reqID != "" {
		args = append(args, "request_id", reqID)
	}
	return args
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}
