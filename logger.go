package filecache

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with cache-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithKey adds a cache key field to the logger.
func (l *Logger) WithKey(key any) *Logger {
	return &Logger{
		Logger: l.Logger.With("key", key),
	}
}

// LogAcquire logs the outcome of an acquire.
func (l *Logger) LogAcquire(ctx context.Context, key any, location string, hit bool, err error) {
	if err != nil {
		l.DebugContext(ctx, "acquire failed",
			"key", key,
			"location", location,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "acquire completed",
		"key", key,
		"location", location,
		"hit", hit,
	)
}

// LogSyncFailure logs a resource that failed to sync on a cache hit.
func (l *Logger) LogSyncFailure(ctx context.Context, location string, err error) {
	l.WarnContext(ctx, "sync failed on cache hit",
		"location", location,
		"error", err,
	)
}

// LogReleaseAnomaly logs a release of a resource that was not on loan.
func (l *Logger) LogReleaseAnomaly(ctx context.Context, location, state string) {
	l.WarnContext(ctx, "release of resource that is not on loan",
		"location", location,
		"state", state,
	)
}

// LogEviction logs a completed eviction pass.
func (l *Logger) LogEviction(ctx context.Context, target, before, evicted, failed int, d time.Duration) {
	if failed > 0 {
		l.WarnContext(ctx, "eviction completed with close failures",
			"target", target,
			"before", before,
			"evicted", evicted,
			"failed", failed,
			"duration", d,
		)
		return
	}
	l.DebugContext(ctx, "eviction completed",
		"target", target,
		"before", before,
		"evicted", evicted,
		"duration", d,
	)
}

// LogEvictionShortfall logs a pass that could not reach its target because
// too many resources are on loan.
func (l *Logger) LogEvictionShortfall(ctx context.Context, target, current, claimed int) {
	l.WarnContext(ctx, "eviction could not reach target, too many resources in use",
		"target", target,
		"current", current,
		"claimed", claimed,
	)
}

// LogCloseFailure logs a resource that failed to close.
func (l *Logger) LogCloseFailure(ctx context.Context, location string, err error) {
	l.ErrorContext(ctx, "close failed",
		"location", location,
		"error", err,
	)
}

// LogForcedClose logs a resource closed while it was still on loan.
func (l *Logger) LogForcedClose(ctx context.Context, location string) {
	l.WarnContext(ctx, "closing resource that is still locked",
		"location", location,
	)
}

// LogClear logs a clear pass.
func (l *Logger) LogClear(ctx context.Context, force bool, closed, failed int) {
	l.InfoContext(ctx, "cache cleared",
		"force", force,
		"closed", closed,
		"failed", failed,
	)
}
