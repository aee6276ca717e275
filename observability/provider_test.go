package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/gaborage/apitest/logger"
)

const testServiceName = "apitest-test"

// restoreGlobals puts the otel globals back after a test installs a provider.
func restoreGlobals(t *testing.T) {
	t.Helper()
	tp := otel.GetTracerProvider()
	mp := otel.GetMeterProvider()
	prop := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetMeterProvider(mp)
		otel.SetTextMapPropagator(prop)
	})
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{Enabled: true}
	cfg.ApplyDefaults()

	assert.Equal(t, DefaultServiceName, cfg.Service.Name)
	assert.Equal(t, "unknown", cfg.Service.Version)
	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, EndpointStdout, cfg.Trace.Endpoint)
	assert.Equal(t, EndpointStdout, cfg.Metrics.Endpoint)
	assert.Equal(t, ProtocolHTTP, cfg.Trace.Protocol)
	require.NotNil(t, cfg.Trace.Enabled)
	assert.True(t, *cfg.Trace.Enabled)
	require.NotNil(t, cfg.Metrics.Enabled)
	assert.True(t, *cfg.Metrics.Enabled)
	assert.InDelta(t, 1.0, *cfg.Trace.SampleRate, 0)
	assert.Equal(t, 500*time.Millisecond, cfg.Trace.BatchTimeout)
	assert.Equal(t, 10*time.Second, cfg.Metrics.Interval)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &Config{
		Enabled: true,
		Trace:   TraceConfig{Enabled: BoolPtr(false), SampleRate: Float64Ptr(0), Endpoint: "collector:4317", Protocol: ProtocolGRPC},
	}
	cfg.ApplyDefaults()

	assert.False(t, *cfg.Trace.Enabled)
	assert.Zero(t, *cfg.Trace.SampleRate)
	assert.Equal(t, "collector:4317", cfg.Metrics.Endpoint, "metrics follow the trace endpoint")
	assert.False(t, cfg.traceEnabled())
	assert.True(t, cfg.metricsEnabled())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr error
	}{
		{name: "nil", cfg: nil, wantErr: ErrNilConfig},
		{name: "disabled_skips_checks", cfg: &Config{Trace: TraceConfig{Protocol: "smtp"}}},
		{name: "sample_rate_too_high", cfg: &Config{Enabled: true, Service: ServiceConfig{Name: "x"}, Trace: TraceConfig{Protocol: ProtocolHTTP, Endpoint: EndpointStdout, SampleRate: Float64Ptr(1.5)}}, wantErr: ErrInvalidSampleRate},
		{name: "bad_protocol", cfg: &Config{Enabled: true, Service: ServiceConfig{Name: "x"}, Trace: TraceConfig{Protocol: "smtp", Endpoint: EndpointStdout}}, wantErr: ErrInvalidProtocol},
		{name: "grpc_with_scheme", cfg: &Config{Enabled: true, Service: ServiceConfig{Name: "x"}, Trace: TraceConfig{Protocol: ProtocolGRPC, Endpoint: "http://collector:4317"}, Metrics: MetricsConfig{Endpoint: EndpointStdout}}, wantErr: ErrInvalidEndpointFormat},
		{name: "http_with_scheme", cfg: &Config{Enabled: true, Service: ServiceConfig{Name: "x"}, Trace: TraceConfig{Protocol: ProtocolHTTP, Endpoint: "http://collector:4318"}, Metrics: MetricsConfig{Endpoint: "collector:4318"}}},
		{name: "missing_service", cfg: &Config{Enabled: true}, wantErr: ErrMissingServiceName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewProviderDisabled(t *testing.T) {
	p, err := NewProvider(&Config{Enabled: false}, nil)
	require.NoError(t, err)

	_, ok := p.TracerProvider().(noop.TracerProvider)
	assert.True(t, ok)
	_, ok = p.MeterProvider().(metricnoop.MeterProvider)
	assert.True(t, ok)
	assert.NoError(t, p.ForceFlush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProviderNilConfig(t *testing.T) {
	_, err := NewProvider(nil, logger.Nop())
	assert.ErrorIs(t, err, ErrNilConfig)
}

func TestNewProviderInvalidConfig(t *testing.T) {
	_, err := NewProvider(&Config{Enabled: true, Trace: TraceConfig{Protocol: "smtp"}}, logger.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidProtocol)
	assert.Contains(t, err.Error(), "invalid observability config")
}

func TestNewProviderStdout(t *testing.T) {
	restoreGlobals(t)

	p, err := NewProvider(&Config{Enabled: true, Service: ServiceConfig{Name: testServiceName}}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	_, ok := p.TracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok)
	_, ok = p.MeterProvider().(*sdkmetric.MeterProvider)
	assert.True(t, ok)
	assert.Same(t, p.TracerProvider(), otel.GetTracerProvider())
	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")
}

func TestNewProviderOTLPExporters(t *testing.T) {
	for _, protocol := range []string{ProtocolHTTP, ProtocolGRPC} {
		t.Run(protocol, func(t *testing.T) {
			restoreGlobals(t)

			// Exporters connect lazily, so no collector is needed to build them
			p, err := NewProvider(&Config{
				Enabled: true,
				Service: ServiceConfig{Name: testServiceName},
				Trace: TraceConfig{
					Endpoint: "127.0.0.1:4317",
					Protocol: protocol,
					Insecure: true,
					Headers:  map[string]string{"api-key": "k"},
				},
			}, logger.Nop())
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			_ = p.Shutdown(ctx)
		})
	}
}

func TestNewProviderTraceOnly(t *testing.T) {
	restoreGlobals(t)

	p, err := NewProvider(&Config{
		Enabled: true,
		Service: ServiceConfig{Name: testServiceName},
		Metrics: MetricsConfig{Enabled: BoolPtr(false)},
	}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	_, ok := p.MeterProvider().(metricnoop.MeterProvider)
	assert.True(t, ok)
}

func TestForceFlushReportsErrors(t *testing.T) {
	restoreGlobals(t)

	p, err := NewProvider(&Config{Enabled: true, Service: ServiceConfig{Name: testServiceName}}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = p.ForceFlush(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flush errors")
}

type recordingProvider struct {
	flushed, shut bool
	shutdownErr   error
}

func (r *recordingProvider) TracerProvider() trace.TracerProvider { return noop.NewTracerProvider() }
func (r *recordingProvider) MeterProvider() metric.MeterProvider  { return metricnoop.NewMeterProvider() }
func (r *recordingProvider) ForceFlush(context.Context) error {
	r.flushed = true
	return nil
}
func (r *recordingProvider) Shutdown(ctx context.Context) error {
	r.shut = true
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("shutdown without deadline")
	}
	return r.shutdownErr
}

func TestShutdown(t *testing.T) {
	assert.NoError(t, Shutdown(nil, time.Second))

	rec := &recordingProvider{}
	require.NoError(t, Shutdown(rec, 0))
	assert.True(t, rec.flushed)
	assert.True(t, rec.shut)

	failing := &recordingProvider{shutdownErr: errors.New("exporter stuck")}
	err := Shutdown(failing, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "observability shutdown failed")
	assert.Contains(t, err.Error(), "exporter stuck")
}
