package dispatch

import (
	"context"
	nethttp "net/http"
	"time"
)

const (
	// DefaultTimeout is the per-attempt deadline when the configuration sets none
	DefaultTimeout = 30 * time.Second

	// DefaultMaxAttempts is the number of attempts made before giving up
	DefaultMaxAttempts = 3

	// DefaultMaxBackoff caps the exponential backoff delay
	DefaultMaxBackoff = 30 * time.Second
)

// Supported request methods.
var supportedMethods = map[string]struct{}{
	nethttp.MethodGet:    {},
	nethttp.MethodPost:   {},
	nethttp.MethodPut:    {},
	nethttp.MethodDelete: {},
	nethttp.MethodPatch:  {},
}

// RequestSpec describes one logical request. It is owned by the caller and
// never modified by the dispatcher or the transport.
type RequestSpec struct {
	Method  string
	URL     string
	Headers map[string]string
	// Query values are merged into the URL's existing query string
	Query map[string]string
	// Body is sent as-is when it is []byte, string or json.RawMessage and JSON-encoded otherwise
	Body any
	// Timeout overrides Config.DefaultTimeout for every attempt when > 0
	Timeout time.Duration
}

// Transport performs a single attempt. A returned Response means the exchange
// completed, whatever its status; any error is a transport-level failure.
type Transport interface {
	Perform(ctx context.Context, spec *RequestSpec, timeout time.Duration) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, spec *RequestSpec, timeout time.Duration) (*Response, error)

// Perform calls f.
func (f TransportFunc) Perform(ctx context.Context, spec *RequestSpec, timeout time.Duration) (*Response, error) {
	return f(ctx, spec, timeout)
}

// BackoffStrategy selects the delay between attempts.
type BackoffStrategy string

const (
	BackoffNone        BackoffStrategy = "none"
	BackoffFixed       BackoffStrategy = "fixed"
	BackoffExponential BackoffStrategy = "exponential"
)

// BackoffConfig configures the wait between failed attempts. The zero value
// retries immediately.
type BackoffConfig struct {
	Strategy BackoffStrategy
	Delay    time.Duration
	MaxDelay time.Duration
}

// Config is the process-wide dispatch configuration. It is read-only once the
// Dispatcher is built.
type Config struct {
	DefaultTimeout time.Duration
	MaxAttempts    int
	Backoff        BackoffConfig
	// RateLimit throttles attempts to this many per second; 0 disables throttling
	RateLimit float64
	// DefaultHeaders are applied first; RequestSpec.Headers override them
	DefaultHeaders map[string]string
	// LogPayloads attaches headers and bodies to the sending/status records
	LogPayloads bool
	// MaxPayloadLogBytes caps logged bodies when LogPayloads is enabled
	MaxPayloadLogBytes int
}

// DefaultConfig returns a 30 second deadline, 3 attempts and no backoff.
func DefaultConfig() Config {
	return Config{
		DefaultTimeout:     DefaultTimeout,
		MaxAttempts:        DefaultMaxAttempts,
		Backoff:            BackoffConfig{Strategy: BackoffNone},
		MaxPayloadLogBytes: 4096,
	}
}

// Validate checks the configuration invariants.
func (c *Config) Validate() error {
	if c.DefaultTimeout <= 0 {
		return NewValidationError("default timeout must be positive", "default_timeout")
	}
	if c.MaxAttempts < 1 {
		return NewValidationError("max attempts must be at least 1", "max_attempts")
	}
	if c.RateLimit < 0 {
		return NewValidationError("rate limit cannot be negative", "rate_limit")
	}
	switch c.Backoff.Strategy {
	case "", BackoffNone:
	case BackoffFixed, BackoffExponential:
		if c.Backoff.Delay <= 0 {
			return NewValidationError("backoff delay must be positive", "backoff.delay")
		}
		if c.Backoff.MaxDelay < 0 {
			return NewValidationError("backoff max delay cannot be negative", "backoff.max_delay")
		}
	default:
		return NewValidationError("unknown backoff strategy "+string(c.Backoff.Strategy), "backoff.strategy")
	}
	return nil
}
