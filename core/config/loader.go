package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// cache stores one parsed value per configuration type.
type cache struct {
	mu     sync.Mutex
	values map[reflect.Type]any
}

var (
	globalCache = &cache{values: make(map[reflect.Type]any)}

	defaultEnvLoaded sync.Once
)

// Load parses environment variables into v. Each configuration type is parsed
// once; subsequent calls for the same type copy the cached value into v.
//
// The default .env file in the working directory is loaded on first use if it
// exists. A failed parse is not cached, so the next call retries.
//
// Example:
//
//	var cfg messenger.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T) error {
	defaultEnvLoaded.Do(func() {
		// A missing .env file is not an error
		_ = godotenv.Load()
	})

	if v == nil {
		return ErrNilPointer
	}

	key := typeKey[T]()

	globalCache.mu.Lock()
	defer globalCache.mu.Unlock()

	if cached, ok := globalCache.values[key]; ok {
		*v = cached.(T)
		return nil
	}

	return parseLocked(key, v)
}

// MustLoad works like Load but panics if configuration loading fails.
// Meant for startup code where a broken configuration must stop the process.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("config: failed to load required configuration: %v", err))
	}
}

// ForceReload parses environment variables into v even if the type is cached,
// and replaces the cached value on success.
func ForceReload[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	key := typeKey[T]()

	globalCache.mu.Lock()
	defer globalCache.mu.Unlock()

	return parseLocked(key, v)
}

// ResetCache drops every cached configuration value.
func ResetCache() {
	globalCache.mu.Lock()
	globalCache.values = make(map[reflect.Type]any)
	globalCache.mu.Unlock()
}

// LoadEnv loads the given .env files into the process environment.
// Later files override values from earlier ones. Cached configurations are
// not affected; call ResetCache or ForceReload to pick up the new values.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		return nil
	}

	if err := godotenv.Overload(paths...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}

	return nil
}

// MustLoadEnv works like LoadEnv but panics on failure.
func MustLoadEnv(paths ...string) {
	if err := LoadEnv(paths...); err != nil {
		panic(fmt.Sprintf("config: failed to load env files: %v", err))
	}
}

func parseLocked[T any](key reflect.Type, v *T) error {
	var parsed T
	if err := env.Parse(&parsed); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	globalCache.values[key] = parsed
	*v = parsed
	return nil
}

func typeKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
