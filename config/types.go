package config

import (
	"time"

	"github.com/gaborage/apitest/dispatch"
	"github.com/gaborage/apitest/observability"
)

// Config is the harness configuration. It is built once per process (or per
// test) and read-only afterwards.
type Config struct {
	// Env selects the target environment (dev, staging or prod).
	Env       string `koanf:"env" validate:"required,environment"`
	BaseURL   string `koanf:"baseurl" validate:"required,http_url"`
	AuthToken string `koanf:"authtoken"`

	// Live runs the suites against BaseURL instead of the in-process fake API.
	Live bool `koanf:"live"`

	Dispatch      DispatchConfig       `koanf:"dispatch"`
	Log           LogConfig            `koanf:"log"`
	Observability observability.Config `koanf:"observability" validate:"-"`
}

// DispatchConfig holds the request dispatcher settings.
type DispatchConfig struct {
	Timeout     time.Duration `koanf:"timeout" validate:"gt=0"`
	MaxAttempts int           `koanf:"maxattempts" validate:"gte=1"`
	// RateLimit is in requests per second; 0 disables throttling.
	RateLimit   float64       `koanf:"ratelimit" validate:"gte=0"`
	LogPayloads bool          `koanf:"logpayloads"`
	Backoff     BackoffConfig `koanf:"backoff"`
}

// BackoffConfig selects the wait between failed attempts.
type BackoffConfig struct {
	Strategy string        `koanf:"strategy" validate:"oneof=none fixed exponential"`
	Delay    time.Duration `koanf:"delay" validate:"gte=0"`
	MaxDelay time.Duration `koanf:"maxdelay" validate:"gte=0"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Pretty bool   `koanf:"pretty"`
	// Dir receives one test_log_<timestamp>.log file per run.
	Dir string `koanf:"dir" validate:"required"`
}

// Environment returns the registered environment matching c.Env.
func (c *Config) Environment() Environment {
	env, _ := LookupEnvironment(c.Env)
	return env
}

// DispatchConfig converts the dispatch section into the dispatcher's own
// configuration type. defaultHeaders may be nil.
func (c *Config) DispatchConfig(defaultHeaders map[string]string) dispatch.Config {
	cfg := dispatch.DefaultConfig()
	cfg.DefaultTimeout = c.Dispatch.Timeout
	cfg.MaxAttempts = c.Dispatch.MaxAttempts
	cfg.RateLimit = c.Dispatch.RateLimit
	cfg.LogPayloads = c.Dispatch.LogPayloads
	cfg.DefaultHeaders = defaultHeaders
	cfg.Backoff = dispatch.BackoffConfig{
		Strategy: dispatch.BackoffStrategy(c.Dispatch.Backoff.Strategy),
		Delay:    c.Dispatch.Backoff.Delay,
		MaxDelay: c.Dispatch.Backoff.MaxDelay,
	}
	return cfg
}

// ObservabilityConfig returns the observability section with the service
// environment defaulted to the target environment.
func (c *Config) ObservabilityConfig() *observability.Config {
	obs := c.Observability
	if obs.Environment == "" {
		obs.Environment = c.Env
	}
	return &obs
}
