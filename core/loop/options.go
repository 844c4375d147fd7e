package loop

import (
	"log/slog"
	"time"
)

// Option configures a Loop.
type Option func(*Loop)

// WithConfig applies every non-zero field of cfg.
func WithConfig(cfg Config) Option {
	return func(l *Loop) {
		WithQueueSize(cfg.QueueSize)(l)
		WithShutdownTimeout(cfg.ShutdownTimeout)(l)
	}
}

// WithQueueSize sets how many work items may wait before Invoke blocks.
func WithQueueSize(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.queueSize = n
		}
	}
}

// WithShutdownTimeout bounds how long Stop waits for the running work item.
func WithShutdownTimeout(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.shutdownTimeout = d
		}
	}
}

// WithLogger configures structured logging for loop operations.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}
