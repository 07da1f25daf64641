// Package config loads and validates the application configuration from the
// environment, optionally seeded from a .env file.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	Port int    `envconfig:"PORT" default:"8080"`
}

// UpstreamConfig configures the rate provider client and the resilience
// pipeline wrapped around it.
type UpstreamConfig struct {
	BaseURL          string        `envconfig:"BASE_URL" default:"https://api.exchangerate-api.com/v4/latest"`
	AttemptTimeout   time.Duration `envconfig:"ATTEMPT_TIMEOUT" default:"2s"`
	MaxRetries       int           `envconfig:"MAX_RETRIES" default:"3"`
	RetryBaseDelay   time.Duration `envconfig:"RETRY_BASE_DELAY" default:"100ms"`
	RetryMaxJitter   time.Duration `envconfig:"RETRY_MAX_JITTER" default:"250ms"`
	BreakerThreshold int           `envconfig:"BREAKER_THRESHOLD" default:"5"`
	BreakerCooldown  time.Duration `envconfig:"BREAKER_COOLDOWN" default:"30s"`
}

// CacheConfig configures the two cache tiers. The local tier is the tighter
// bound, so LocalTTL must not exceed SharedTTL.
type CacheConfig struct {
	LocalTTL  time.Duration `envconfig:"LOCAL_TTL" default:"5m"`
	SharedTTL time.Duration `envconfig:"SHARED_TTL" default:"10m"`
	RedisURL  string        `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	Prefix    string        `envconfig:"PREFIX" default:"fxgate:rates:"`
}

// WarmupConfig configures the background cache warmer.
type WarmupConfig struct {
	Currencies  []string      `envconfig:"CURRENCIES" default:"USD,EUR,GBP,AUD"`
	Interval    time.Duration `envconfig:"INTERVAL" default:"10m"`
	PassTimeout time.Duration `envconfig:"PASS_TIMEOUT" default:"30s"`
}

// AppConfig is the root configuration.
type AppConfig struct {
	Env      string         `envconfig:"APP_ENV" default:"development"`
	Server   ServerConfig   `envconfig:"SERVER"`
	Upstream UpstreamConfig `envconfig:"UPSTREAM"`
	Cache    CacheConfig    `envconfig:"CACHE"`
	Warmup   WarmupConfig   `envconfig:"WARMUP"`
}

// Load reads the configuration from the environment. A .env file is loaded
// first when present; its absence is not an error.
func Load(logger *slog.Logger, envFilePath ...string) (*AppConfig, error) {
	var err error
	if len(envFilePath) > 0 && envFilePath[0] != "" {
		err = godotenv.Load(envFilePath[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		logger.Warn("No .env file found, using system environment variables")
	} else {
		logger.Info("Environment variables loaded from .env file")
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info("App config loaded",
		"env", cfg.Env,
		"upstream_url", cfg.Upstream.BaseURL,
		"attempt_timeout", cfg.Upstream.AttemptTimeout,
		"max_retries", cfg.Upstream.MaxRetries,
		"breaker_threshold", cfg.Upstream.BreakerThreshold,
		"local_ttl", cfg.Cache.LocalTTL,
		"shared_ttl", cfg.Cache.SharedTTL,
		"warmup_currencies", cfg.Warmup.Currencies,
		"warmup_interval", cfg.Warmup.Interval,
	)
	return &cfg, nil
}

// Validate rejects configurations the rest of the system assumes away.
func (c *AppConfig) Validate() error {
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream base URL is required")
	}
	if c.Upstream.AttemptTimeout <= 0 {
		return fmt.Errorf("attempt timeout must be positive, got %s", c.Upstream.AttemptTimeout)
	}
	if c.Upstream.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative, got %d", c.Upstream.MaxRetries)
	}
	if c.Upstream.RetryBaseDelay <= 0 {
		return fmt.Errorf("retry base delay must be positive, got %s", c.Upstream.RetryBaseDelay)
	}
	if c.Upstream.RetryMaxJitter < 0 {
		return fmt.Errorf("retry max jitter must not be negative, got %s", c.Upstream.RetryMaxJitter)
	}
	if c.Upstream.BreakerThreshold < 1 {
		return fmt.Errorf("breaker threshold must be at least 1, got %d", c.Upstream.BreakerThreshold)
	}
	if c.Upstream.BreakerCooldown <= 0 {
		return fmt.Errorf("breaker cooldown must be positive, got %s", c.Upstream.BreakerCooldown)
	}
	if c.Cache.LocalTTL <= 0 || c.Cache.SharedTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	if c.Cache.LocalTTL > c.Cache.SharedTTL {
		return fmt.Errorf("local TTL %s must not exceed shared TTL %s", c.Cache.LocalTTL, c.Cache.SharedTTL)
	}
	if c.Warmup.Interval <= 0 {
		return fmt.Errorf("warmup interval must be positive, got %s", c.Warmup.Interval)
	}
	return nil
}
