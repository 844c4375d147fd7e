package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/messenger/core/config"
)

type defaultsConfig struct {
	Delay   time.Duration `env:"TEST_DELAY_DEFAULT" envDefault:"50ms"`
	Size    int           `env:"TEST_SIZE_DEFAULT" envDefault:"64"`
	Enabled bool          `env:"TEST_ENABLED_DEFAULT" envDefault:"true"`
}

type successConfig struct {
	Delay   time.Duration `env:"TEST_DELAY_SUCCESS" envDefault:"50ms"`
	Size    int           `env:"TEST_SIZE_SUCCESS" envDefault:"64"`
	Enabled bool          `env:"TEST_ENABLED_SUCCESS" envDefault:"true"`
}

type singletonConfig struct {
	Value string `env:"TEST_VALUE_SINGLETON" envDefault:"default_value"`
}

type reloadConfig struct {
	Value string `env:"TEST_VALUE_RELOAD" envDefault:"default_value"`
}

type requiredConfig struct {
	Required string `env:"TEST_REQUIRED_VALUE,required"`
}

type customEnvConfig struct {
	String string   `env:"TEST_CUSTOM_STRING"`
	Int    int      `env:"TEST_CUSTOM_INT"`
	List   []string `env:"TEST_CUSTOM_LIST" envSeparator:","`
	Quoted string   `env:"TEST_CUSTOM_QUOTED"`
}

func TestLoad_Success(t *testing.T) {
	t.Setenv("TEST_DELAY_SUCCESS", "2s")
	t.Setenv("TEST_SIZE_SUCCESS", "128")
	t.Setenv("TEST_ENABLED_SUCCESS", "false")

	var cfg successConfig
	err := config.Load(&cfg)

	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Delay)
	assert.Equal(t, 128, cfg.Size)
	assert.False(t, cfg.Enabled)
}

func TestLoad_DefaultValues(t *testing.T) {
	os.Unsetenv("TEST_DELAY_DEFAULT")
	os.Unsetenv("TEST_SIZE_DEFAULT")
	os.Unsetenv("TEST_ENABLED_DEFAULT")

	var cfg defaultsConfig
	err := config.Load(&cfg)

	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, cfg.Delay)
	assert.Equal(t, 64, cfg.Size)
	assert.True(t, cfg.Enabled)
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv("TEST_REQUIRED_VALUE")

	var cfg requiredConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)

	// Failures are not cached
	t.Setenv("TEST_REQUIRED_VALUE", "now_set")
	err = config.Load(&cfg)
	require.NoError(t, err)
	assert.Equal(t, "now_set", cfg.Required)
}

func TestLoad_Singleton(t *testing.T) {
	t.Setenv("TEST_VALUE_SINGLETON", "first_value")

	var first singletonConfig
	require.NoError(t, config.Load(&first))

	t.Setenv("TEST_VALUE_SINGLETON", "second_value")

	var second singletonConfig
	require.NoError(t, config.Load(&second))

	assert.Equal(t, "first_value", second.Value, "second load should return the cached value")
}

func TestForceReload(t *testing.T) {
	t.Setenv("TEST_VALUE_RELOAD", "first_value")

	var cfg reloadConfig
	require.NoError(t, config.Load(&cfg))

	t.Setenv("TEST_VALUE_RELOAD", "second_value")
	require.NoError(t, config.ForceReload(&cfg))
	assert.Equal(t, "second_value", cfg.Value)

	var cached reloadConfig
	require.NoError(t, config.Load(&cached))
	assert.Equal(t, "second_value", cached.Value, "reload should replace the cached value")
}

func TestLoad_NilPointer(t *testing.T) {
	var cfg *successConfig
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
	assert.ErrorIs(t, config.ForceReload(cfg), config.ErrNilPointer)
}

func TestMustLoad_PanicsOnMissingRequired(t *testing.T) {
	os.Unsetenv("TEST_REQUIRED_VALUE")
	config.ResetCache()

	assert.Panics(t, func() {
		var cfg requiredConfig
		config.MustLoad(&cfg)
	})
}

func TestLoadEnv_CustomPaths(t *testing.T) {
	for _, key := range []string{"TEST_CUSTOM_STRING", "TEST_CUSTOM_INT", "TEST_CUSTOM_LIST", "TEST_CUSTOM_QUOTED"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	require.NoError(t, config.LoadEnv("testdata/.env.custom"))
	config.ResetCache()

	var cfg customEnvConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "custom_value", cfg.String)
	assert.Equal(t, 1234, cfg.Int)
	assert.Equal(t, []string{"item1", "item2", "item3"}, cfg.List)
	assert.Equal(t, "quoted value", cfg.Quoted)

	require.NoError(t, config.LoadEnv("testdata/.env.custom", "testdata/.env.override"))
	require.NoError(t, config.ForceReload(&cfg))
	assert.Equal(t, "override_value", cfg.String)
	assert.Equal(t, 9999, cfg.Int)
}

func TestLoadEnv_NonExistentPath(t *testing.T) {
	err := config.LoadEnv("testdata/non_existent_file.env")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)

	assert.Panics(t, func() {
		config.MustLoadEnv("testdata/non_existent_file.env")
	})
	assert.NotPanics(t, func() {
		config.MustLoadEnv()
	})
}
