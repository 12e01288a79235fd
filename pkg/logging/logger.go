package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const requestIDKey contextKey = "requestID"

// LevelTrace is below debug and only used for per-vertex extraction detail
const LevelTrace = slog.LevelDebug - 4

var (
	mu     sync.RWMutex
	logger *slog.Logger
)

func init() {
	// Compact handler for readable console output; diagnostics go to stderr
	// so that stdout stays free for the report.
	logger = slog.New(NewCompactHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func replace(l *slog.Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}

// SetLevel changes the logging level
func SetLevel(level slog.Level) {
	SetOutput(os.Stderr, level)
}

// SetOutput redirects compact log output, e.g. to a buffer in tests
func SetOutput(w io.Writer, level slog.Level) {
	replace(slog.New(NewCompactHandler(w, &slog.HandlerOptions{
		Level: level,
	})))
}

// SetJSONOutput switches to JSON format output
func SetJSONOutput(level slog.Level) {
	replace(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

// LevelFromVerbosity maps the --verbosity name or the -v count to a level.
// The name wins when both are given.
func LevelFromVerbosity(name string, count int) slog.Level {
	switch name {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	switch {
	case count >= 2:
		return LevelTrace
	case count == 1:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// Helper function to add request ID to log attributes if present
func withRequestID(ctx context.Context, args []any) []any {
	requestID := GetRequestID(ctx)
	if requestID != "" {
		return append([]any{"requestID", requestID}, args...)
	}
	return args
}

// Trace logs at TRACE level (very verbose, debug-time only)
func Trace(msg string, args ...any) {
	current().Log(context.Background(), LevelTrace, msg, args...)
}

// Debug logs at DEBUG level (internal component behavior)
func Debug(msg string, args ...any) {
	current().Debug(msg, args...)
}

// Info logs at INFO level (user-facing operations)
func Info(msg string, args ...any) {
	current().Info(msg, args...)
}

// InfoContext logs at INFO level with context
func InfoContext(ctx context.Context, msg string, args ...any) {
	current().InfoContext(ctx, msg, withRequestID(ctx, args)...)
}

// Warn logs at WARN level (should be monitored)
func Warn(msg string, args ...any) {
	current().Warn(msg, args...)
}

// Error logs at ERROR level
func Error(msg string, args ...any) {
	current().Error(msg, args...)
}

// ErrorContext logs at ERROR level with context
func ErrorContext(ctx context.Context, msg string, args ...any) {
	current().ErrorContext(ctx, msg, withRequestID(ctx, args)...)
}

// Fatal logs at ERROR level and exits (unrecoverable errors)
func Fatal(msg string, args ...any) {
	current().Error(msg, args...)
	os.Exit(1)
}

// Logger logs on behalf of a named component, e.g. "cxl.loader"
type Logger struct {
	component string
}

// New creates a component logger. It always writes through the current
// package logger, so level changes apply to existing component loggers.
func New(component string) *Logger {
	return &Logger{component: component}
}

func (l *Logger) args(args []any) []any {
	return append([]any{"component", l.component}, args...)
}

// Trace logs at TRACE level
func (l *Logger) Trace(msg string, args ...any) {
	current().Log(context.Background(), LevelTrace, msg, l.args(args)...)
}

// Debug logs at DEBUG level
func (l *Logger) Debug(msg string, args ...any) {
	current().Debug(msg, l.args(args)...)
}

// Info logs at INFO level
func (l *Logger) Info(msg string, args ...any) {
	current().Info(msg, l.args(args)...)
}

// Warn logs at WARN level
func (l *Logger) Warn(msg string, args ...any) {
	current().Warn(msg, l.args(args)...)
}

// Error logs at ERROR level
func (l *Logger) Error(msg string, args ...any) {
	current().Error(msg, l.args(args)...)
}
