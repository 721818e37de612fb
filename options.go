package filecache

import (
	"log/slog"
	"time"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	now              func() time.Time
}

// Option configures optional Cache behavior.
type Option func(*options)

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := filecache.NewJSONLogger(slog.LevelInfo)
//	c, _ := filecache.New(cfg, filecache.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &filecache.BasicMetricsCollector{}
//	c, _ := filecache.New(cfg, filecache.WithMetricsCollector(metrics))
//	// ... use c ...
//	stats := metrics.GetStats()
//	fmt.Printf("Acquires: %d, Hits: %d\n", stats.AcquireCount, stats.AcquireHits)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithClock sets the time source used for access timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}
