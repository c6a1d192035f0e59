package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/vk/isoflux/internal/artifact"
	"github.com/vk/isoflux/internal/dispatch"
)

// Config holds all the necessary configuration for an App instance to run.
// Values come from ISOFLUX_* environment variables (and a .env file) and
// may be overridden by command-line flags.
type Config struct {
	LogLevel  string  `env:"ISOFLUX_LOG_LEVEL" envDefault:"info"`
	LogFormat string  `env:"ISOFLUX_LOG_FORMAT" envDefault:"text"`
	Workers   int     `env:"ISOFLUX_WORKERS" envDefault:"10"`
	Tolerance float64 `env:"ISOFLUX_TOLERANCE" envDefault:"1e-9"`

	// Output is where artifacts are written: a directory, file:// or
	// s3://bucket/prefix URI. Empty writes to the output stream.
	Output string `env:"ISOFLUX_OUTPUT"`

	S3       S3Config
	Dispatch DispatchConfig
}

// S3Config holds the credentials used when Output is an s3:// URI.
type S3Config struct {
	Endpoint  string `env:"ISOFLUX_S3_ENDPOINT"`
	Region    string `env:"ISOFLUX_S3_REGION" envDefault:"us-east-1"`
	AccessKey string `env:"ISOFLUX_S3_ACCESS_KEY"`
	SecretKey string `env:"ISOFLUX_S3_SECRET_KEY"`
	UseSSL    bool   `env:"ISOFLUX_S3_USE_SSL" envDefault:"true"`
}

// DispatchConfig holds the estimation worker endpoint.
type DispatchConfig struct {
	URL                string        `env:"ISOFLUX_DISPATCH_URL"`
	Namespace          string        `env:"ISOFLUX_DISPATCH_NAMESPACE" envDefault:"/"`
	ConnectTimeout     time.Duration `env:"ISOFLUX_DISPATCH_CONNECT_TIMEOUT" envDefault:"15s"`
	RequestTimeout     time.Duration `env:"ISOFLUX_DISPATCH_TIMEOUT" envDefault:"30m"`
	InsecureSkipVerify bool          `env:"ISOFLUX_DISPATCH_INSECURE"`
	Format             string        `env:"ISOFLUX_DISPATCH_FORMAT" envDefault:"msgpack"`
}

// LoadConfig reads the configuration from the environment. A .env file in
// the working directory is loaded first when present; variables already set
// in the environment win.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()
	return loadConfig(env.Options{})
}

func loadConfig(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// NewConfig validates cfg and returns it.
func NewConfig(cfg Config) (*Config, error) {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, errors.New("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, errors.New("invalid log-format: must be 'text' or 'json'")
	}
	if cfg.Workers < 1 {
		return nil, errors.New("workers must be at least 1")
	}
	if cfg.Tolerance < 0 {
		return nil, errors.New("tolerance must not be negative")
	}
	switch cfg.Dispatch.Format {
	case "msgpack", "yaml", "json":
	default:
		return nil, fmt.Errorf("invalid dispatch format %q: must be 'msgpack', 'yaml' or 'json'", cfg.Dispatch.Format)
	}
	return &cfg, nil
}

func (c *Config) artifactConfig() artifact.S3Config {
	return artifact.S3Config{
		Endpoint:  c.S3.Endpoint,
		Region:    c.S3.Region,
		AccessKey: c.S3.AccessKey,
		SecretKey: c.S3.SecretKey,
		UseSSL:    c.S3.UseSSL,
	}
}

func (c *Config) dispatchConfig() dispatch.Config {
	return dispatch.Config{
		URL:                c.Dispatch.URL,
		Namespace:          c.Dispatch.Namespace,
		InsecureSkipVerify: c.Dispatch.InsecureSkipVerify,
		ConnectTimeout:     c.Dispatch.ConnectTimeout,
		RequestTimeout:     c.Dispatch.RequestTimeout,
	}
}
