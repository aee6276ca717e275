package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/gaborage/apitest/logger"
)

func findMetric(rm *metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func newInstrumentedDispatcher(t *testing.T, maxAttempts int, transport Transport) (*Dispatcher, *sdkmetric.ManualReader, *tracetest.InMemoryExporter) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() {
		_ = mp.Shutdown(context.Background())
		_ = tp.Shutdown(context.Background())
	})

	d, err := New(testConfig(maxAttempts), logger.Nop(),
		WithTransport(transport),
		WithMeterProvider(mp),
		WithTracerProvider(tp),
	)
	require.NoError(t, err)
	return d, reader, exporter
}

func TestDispatchRecordsAttemptMetrics(t *testing.T) {
	stub := &stubTransport{script: failThenRespond(2, 200, "")}
	d, reader, _ := newInstrumentedDispatcher(t, 3, stub)

	_, err := d.Dispatch(context.Background(), getSpec())
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	m, ok := findMetric(&rm, metricAttempts)
	require.True(t, ok)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	counts := map[string]int64{}
	for _, dp := range sum.DataPoints {
		outcome, _ := dp.Attributes.Value(attribute.Key(attrOutcome))
		counts[outcome.AsString()] += dp.Value
		if outcome.AsString() == outcomeFailure {
			kind, _ := dp.Attributes.Value(attribute.Key(attrFailureKind))
			assert.Equal(t, string(FailureConnectionRefused), kind.AsString())
		}
	}
	assert.Equal(t, int64(2), counts[outcomeFailure])
	assert.Equal(t, int64(1), counts[outcomeSuccess])

	m, ok = findMetric(&rm, metricDuration)
	require.True(t, ok)
	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
}

func TestDispatchRecordsSpan(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		stub := &stubTransport{script: failThenRespond(1, 404, "")}
		d, _, exporter := newInstrumentedDispatcher(t, 3, stub)

		_, err := d.Dispatch(context.Background(), getSpec())
		require.NoError(t, err)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		span := spans[0]
		assert.Equal(t, "dispatch GET", span.Name)
		assert.NotEqual(t, codes.Error, span.Status.Code)
		require.Len(t, span.Events, 1)
		assert.Equal(t, "attempt failed", span.Events[0].Name)

		attrs := attribute.NewSet(span.Attributes...)
		status, ok := attrs.Value(attribute.Key(attrStatusCode))
		require.True(t, ok)
		assert.Equal(t, int64(404), status.AsInt64())
		attempts, _ := attrs.Value(attribute.Key(attrAttempts))
		assert.Equal(t, int64(2), attempts.AsInt64())
	})

	t.Run("exhausted", func(t *testing.T) {
		stub := &stubTransport{script: alwaysFail(errRefused)}
		d, _, exporter := newInstrumentedDispatcher(t, 2, stub)

		_, err := d.Dispatch(context.Background(), getSpec())
		require.Error(t, err)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status.Code)
		assert.Contains(t, spans[0].Status.Description, "failed after 2 attempt(s)")
	})
}
