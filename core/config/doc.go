// Package config provides type-safe environment variable loading with caching
// using Go generics. Each configuration type is parsed once and cached for
// subsequent calls.
//
// The package loads the default .env file on first use and uses the
// caarlos0/env library for parsing environment variables into struct fields.
//
// Basic usage:
//
//	import "github.com/dmitrymomot/messenger/core/config"
//
//	type Config struct {
//		CleanupDelay       time.Duration `env:"MESSENGER_CLEANUP_DELAY" envDefault:"100ms"`
//		ConcurrentDelivery bool          `env:"MESSENGER_CONCURRENT_DELIVERY" envDefault:"false"`
//	}
//
//	func main() {
//		var cfg Config
//		if err := config.Load(&cfg); err != nil {
//			log.Fatal(err)
//		}
//
//		// Or panic on failure at startup
//		config.MustLoad(&cfg)
//	}
//
// # Caching Behavior
//
// Each configuration type is parsed only once:
//
//	var cfg1 Config
//	config.Load(&cfg1) // parses the environment
//
//	var cfg2 Config
//	config.Load(&cfg2) // copies the cached value
//
// ForceReload re-parses a single type and ResetCache drops everything, which
// is mostly useful in tests together with t.Setenv.
//
// # Env Files
//
// LoadEnv loads additional files into the process environment. Later files
// override earlier ones:
//
//	config.MustLoadEnv(".env", ".env.local")
package config
