package log

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

// DefaultContextProvider returns the context used by context-unaware logging
// functions and methods.
//
//nolint:gochecknoglobals
var DefaultContextProvider = context.TODO

//nolint:gochecknoglobals
var (
	defaultMu  sync.RWMutex
	defaultLog = Make(os.Stderr)
)

// Default returns the process-wide default logger.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()

	return defaultLog
}

// Config reconfigures the default logger with opts applied on top of its
// current configuration.
func Config(opts ...Option) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	defaultLog = defaultLog.Wrap(opts...)
}

// The package-level functions add one frame on top of the Logger methods.
const pkgCallerSkip = callerSkip + 1

// TraceContext logs at Trace level using the default logger.
func TraceContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().emit(ctx, pkgCallerSkip, LevelTrace, msg, attrs...)
}

// DebugContext logs at Debug level using the default logger.
func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().emit(ctx, pkgCallerSkip, LevelDebug, msg, attrs...)
}

// Debug logs at Debug level using the default logger.
func Debug(msg string, attrs ...slog.Attr) {
	Default().emit(DefaultContextProvider(), pkgCallerSkip, LevelDebug, msg, attrs...)
}

// InfoContext logs at Info level using the default logger.
func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().emit(ctx, pkgCallerSkip, LevelInfo, msg, attrs...)
}

// Info logs at Info level using the default logger.
func Info(msg string, attrs ...slog.Attr) {
	Default().emit(DefaultContextProvider(), pkgCallerSkip, LevelInfo, msg, attrs...)
}

// WarnContext logs at Warn level using the default logger.
func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().emit(ctx, pkgCallerSkip, LevelWarn, msg, attrs...)
}

// Warn logs at Warn level using the default logger.
func Warn(msg string, attrs ...slog.Attr) {
	Default().emit(DefaultContextProvider(), pkgCallerSkip, LevelWarn, msg, attrs...)
}

// ErrorContext logs at Error level using the default logger.
func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().emit(ctx, pkgCallerSkip, LevelError, msg, attrs...)
}

// Error logs at Error level using the default logger.
func Error(msg string, attrs ...slog.Attr) {
	Default().emit(DefaultContextProvider(), pkgCallerSkip, LevelError, msg, attrs...)
}
