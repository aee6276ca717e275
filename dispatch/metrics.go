package dispatch

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	instrumentationName = "github.com/gaborage/apitest/dispatch"

	metricAttempts = "apitest.dispatch.attempts"
	metricDuration = "apitest.dispatch.duration"

	attrMethod      = "http.request.method"
	attrOutcome     = "apitest.outcome"
	attrFailureKind = "error.type"
	attrStatusCode  = "http.response.status_code"
	attrURL         = "url.full"
	attrAttempts    = "apitest.attempts"
	attrRequestID   = "apitest.request_id"

	outcomeSuccess   = "success"
	outcomeFailure   = "failure"
	outcomeExhausted = "exhausted"
)

// instruments holds the dispatcher's metric instruments. Instruments that
// failed to register stay nil and are skipped.
type instruments struct {
	attempts metric.Int64Counter
	duration metric.Float64Histogram
}

func logMetricError(name string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize dispatch metric %s: %v\n", name, err)
	}
}

func newInstruments(meter metric.Meter) *instruments {
	inst := &instruments{}
	var err error

	inst.attempts, err = meter.Int64Counter(
		metricAttempts,
		metric.WithDescription("Number of transport attempts made by the dispatcher"),
		metric.WithUnit("{attempt}"),
	)
	logMetricError(metricAttempts, err)

	inst.duration, err = meter.Float64Histogram(
		metricDuration,
		metric.WithDescription("Duration of a whole dispatch including retries"),
		metric.WithUnit("s"),
	)
	logMetricError(metricDuration, err)

	return inst
}

func (i *instruments) recordAttempt(ctx context.Context, method string, err error) {
	if i == nil || i.attempts == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String(attrMethod, method)}
	if err == nil {
		attrs = append(attrs, attribute.String(attrOutcome, outcomeSuccess))
	} else {
		attrs = append(attrs,
			attribute.String(attrOutcome, outcomeFailure),
			attribute.String(attrFailureKind, string(ClassifyFailure(err))),
		)
	}
	i.attempts.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (i *instruments) recordDispatch(ctx context.Context, method, outcome string, elapsed time.Duration) {
	if i == nil || i.duration == nil {
		return
	}
	i.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrOutcome, outcome),
	))
}
