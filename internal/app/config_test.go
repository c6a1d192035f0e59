package app

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// envOptions isolates config parsing from the process environment.
func envOptions(vars map[string]string) env.Options {
	if vars == nil {
		vars = map[string]string{}
	}
	return env.Options{Environment: vars}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(envOptions(nil))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 10, cfg.Workers)
	assert.Equal(t, 1e-9, cfg.Tolerance)
	assert.Empty(t, cfg.Output)
	assert.True(t, cfg.S3.UseSSL)
	assert.Equal(t, "/", cfg.Dispatch.Namespace)
	assert.Equal(t, 30*time.Minute, cfg.Dispatch.RequestTimeout)
	assert.Equal(t, "msgpack", cfg.Dispatch.Format)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	cfg, err := loadConfig(envOptions(map[string]string{
		"ISOFLUX_LOG_LEVEL":        "debug",
		"ISOFLUX_WORKERS":          "3",
		"ISOFLUX_OUTPUT":           "s3://bucket/runs",
		"ISOFLUX_S3_USE_SSL":       "false",
		"ISOFLUX_DISPATCH_URL":     "http://localhost:5000",
		"ISOFLUX_DISPATCH_TIMEOUT": "90s",
	}))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "s3://bucket/runs", cfg.Output)
	assert.False(t, cfg.S3.UseSSL)
	assert.Equal(t, "http://localhost:5000", cfg.dispatchConfig().URL)
	assert.Equal(t, 90*time.Second, cfg.dispatchConfig().RequestTimeout)
}

func TestLoadConfig_Malformed(t *testing.T) {
	_, err := loadConfig(envOptions(map[string]string{"ISOFLUX_WORKERS": "many"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestNewConfig_Validation(t *testing.T) {
	base, err := loadConfig(envOptions(nil))
	require.NoError(t, err)

	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
		{"no workers", func(c *Config) { c.Workers = 0 }},
		{"negative tolerance", func(c *Config) { c.Tolerance = -1 }},
		{"bad dispatch format", func(c *Config) { c.Dispatch.Format = "mat" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			_, err := NewConfig(cfg)
			require.Error(t, err)
		})
	}

	got, err := NewConfig(base)
	require.NoError(t, err)
	assert.Equal(t, base, *got)
}
