package messenger

import "time"

// Config holds messenger settings. Designed for environment-based
// configuration through core/config.
type Config struct {
	// CleanupDelay is how long the default idle scheduler waits before purging
	// dead subscriptions. Ignored when WithIdleScheduler is used.
	CleanupDelay time.Duration `env:"MESSENGER_CLEANUP_DELAY" envDefault:"100ms"`

	// ConcurrentDelivery makes every send fan callbacks out to goroutines
	// unless the send overrides it.
	ConcurrentDelivery bool `env:"MESSENGER_CONCURRENT_DELIVERY" envDefault:"false"`
}

// DefaultConfig returns the defaults used by New.
func DefaultConfig() Config {
	return Config{
		CleanupDelay:       100 * time.Millisecond,
		ConcurrentDelivery: false,
	}
}
