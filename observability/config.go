package observability

import (
	"fmt"
	"strings"
	"time"
)

const (
	// EndpointStdout is a special endpoint value that prints telemetry to stdout.
	EndpointStdout = "stdout"

	// ProtocolHTTP specifies OTLP over HTTP/protobuf.
	ProtocolHTTP = "http"

	// ProtocolGRPC specifies OTLP over gRPC.
	ProtocolGRPC = "grpc"

	// DefaultServiceName identifies the harness when no service name is configured.
	DefaultServiceName = "apitest"
)

// BoolPtr returns a pointer to the provided bool value.
func BoolPtr(v bool) *bool {
	return &v
}

// Float64Ptr returns a pointer to the provided float64 value.
func Float64Ptr(v float64) *float64 {
	return &v
}

// Config defines where the harness sends its spans and dispatch metrics.
type Config struct {
	// Enabled controls whether observability is active.
	// When false, all observability operations become no-ops.
	Enabled bool `koanf:"enabled"`

	Service ServiceConfig `koanf:"service"`

	// Environment is the target environment name (dev, staging, prod).
	Environment string `koanf:"environment"`

	Trace   TraceConfig   `koanf:"trace"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// ServiceConfig contains service identification metadata.
type ServiceConfig struct {
	Name    string `koanf:"name"`
	Version string `koanf:"version"`
}

// TraceConfig defines configuration for dispatch spans.
type TraceConfig struct {
	// nil = enabled when observability is enabled, false = explicitly disabled.
	Enabled *bool `koanf:"enabled"`

	// Endpoint is "stdout" or an OTLP endpoint ("localhost:4318" for http, "localhost:4317" for grpc).
	Endpoint string            `koanf:"endpoint"`
	Protocol string            `koanf:"protocol"`
	Insecure bool              `koanf:"insecure"`
	Headers  map[string]string `koanf:"headers"`

	// SampleRate is the fraction of traces kept; nil applies 1.0.
	SampleRate *float64 `koanf:"samplerate"`

	BatchTimeout  time.Duration `koanf:"batchtimeout"`
	ExportTimeout time.Duration `koanf:"exporttimeout"`
}

// MetricsConfig defines configuration for dispatch metrics. The OTLP protocol,
// TLS mode and headers are shared with TraceConfig.
type MetricsConfig struct {
	Enabled       *bool         `koanf:"enabled"`
	Endpoint      string        `koanf:"endpoint"`
	Interval      time.Duration `koanf:"interval"`
	ExportTimeout time.Duration `koanf:"exporttimeout"`
}

// ApplyDefaults sets default values for any config fields that are not specified.
func (c *Config) ApplyDefaults() {
	if c.Service.Name == "" {
		c.Service.Name = DefaultServiceName
	}
	if c.Service.Version == "" {
		c.Service.Version = "unknown"
	}
	if c.Environment == "" {
		c.Environment = "dev"
	}

	if c.Trace.Endpoint == "" {
		c.Trace.Endpoint = EndpointStdout
	}
	if c.Enabled && c.Trace.Enabled == nil {
		c.Trace.Enabled = BoolPtr(true)
	}
	if c.Trace.Protocol == "" {
		c.Trace.Protocol = ProtocolHTTP
	}
	if c.Trace.SampleRate == nil {
		c.Trace.SampleRate = Float64Ptr(1.0)
	}
	if c.Trace.BatchTimeout == 0 {
		c.Trace.BatchTimeout = 500 * time.Millisecond
	}
	if c.Trace.ExportTimeout == 0 {
		c.Trace.ExportTimeout = 10 * time.Second
	}

	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = c.Trace.Endpoint
	}
	if c.Enabled && c.Metrics.Enabled == nil {
		c.Metrics.Enabled = BoolPtr(true)
	}
	if c.Metrics.Interval == 0 {
		c.Metrics.Interval = 10 * time.Second
	}
	if c.Metrics.ExportTimeout == 0 {
		c.Metrics.ExportTimeout = 10 * time.Second
	}
}

// Validate checks the configuration after defaults were applied.
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if !c.Enabled {
		return nil
	}
	if c.Service.Name == "" {
		return ErrMissingServiceName
	}
	if rate := c.Trace.SampleRate; rate != nil && (*rate < 0 || *rate > 1) {
		return fmt.Errorf("%w: got %.2f", ErrInvalidSampleRate, *rate)
	}
	if c.Trace.Protocol != ProtocolHTTP && c.Trace.Protocol != ProtocolGRPC {
		return fmt.Errorf("trace protocol '%s': %w", c.Trace.Protocol, ErrInvalidProtocol)
	}
	if err := validateEndpoint(c.Trace.Endpoint, c.Trace.Protocol); err != nil {
		return fmt.Errorf("trace: %w", err)
	}
	if err := validateEndpoint(c.Metrics.Endpoint, c.Trace.Protocol); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}

// validateEndpoint rejects URL schemes on gRPC endpoints. HTTP endpoints may be
// a bare host:port or a full URL.
func validateEndpoint(endpoint, protocol string) error {
	if endpoint == EndpointStdout || protocol != ProtocolGRPC {
		return nil
	}
	if hasScheme(endpoint) {
		return fmt.Errorf("%w: %s endpoint %q must be host:port without a scheme", ErrInvalidEndpointFormat, protocol, endpoint)
	}
	return nil
}

func (c *Config) traceEnabled() bool {
	return c.Enabled && c.Trace.Enabled != nil && *c.Trace.Enabled
}

func (c *Config) metricsEnabled() bool {
	return c.Enabled && c.Metrics.Enabled != nil && *c.Metrics.Enabled
}

func hasScheme(endpoint string) bool {
	return strings.Contains(endpoint, "://")
}
