package loop

import "time"

// Config holds loop settings. Designed for environment-based configuration
// through core/config.
type Config struct {
	QueueSize       int           `env:"LOOP_QUEUE_SIZE" envDefault:"256"`
	ShutdownTimeout time.Duration `env:"LOOP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// DefaultConfig returns the defaults used by New.
func DefaultConfig() Config {
	return Config{
		QueueSize:       256,
		ShutdownTimeout: 30 * time.Second,
	}
}
