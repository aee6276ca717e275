package dispatch

import (
	"context"
	crand "crypto/rand"
	"errors"
	"math/big"
	nethttp "net/http"
	"net/url"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/gaborage/apitest/logger"
	"github.com/gaborage/apitest/trace"
)

// Dispatcher sends requests through a Transport with retry, timeout and
// logging. It is safe for concurrent use; the only state shared between
// dispatches is the read-only Config and a call counter.
type Dispatcher struct {
	transport Transport
	logger    logger.Logger
	config    Config
	limiter   *rate.Limiter
	tracer    oteltrace.Tracer
	metrics   *instruments
	sleep     func(ctx context.Context, d time.Duration) error
	callCount int64

	// payloadFilter masks bodies before truncation, whatever Logger is in use
	payloadFilter *logger.SensitiveDataFilter
}

// Option customizes a Dispatcher.
type Option func(*options)

type options struct {
	transport      Transport
	tracerProvider oteltrace.TracerProvider
	meterProvider  metric.MeterProvider
}

// WithTransport replaces the default net/http transport.
func WithTransport(t Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithTracerProvider sets the tracer provider; the global one is used otherwise.
func WithTracerProvider(tp oteltrace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// WithMeterProvider sets the meter provider; the global one is used otherwise.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// New validates cfg and builds a Dispatcher logging to log.
func New(cfg Config, log logger.Logger, opts ...Option) (*Dispatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.transport == nil {
		o.transport = NewHTTPTransport(nil)
	}
	if o.tracerProvider == nil {
		o.tracerProvider = otel.GetTracerProvider()
	}
	if o.meterProvider == nil {
		o.meterProvider = otel.GetMeterProvider()
	}

	d := &Dispatcher{
		transport: o.transport,
		logger:    log,
		config:    cfg,
		tracer:    o.tracerProvider.Tracer(instrumentationName),
		metrics:   newInstruments(o.meterProvider.Meter(instrumentationName)),
		sleep:     sleepContext,

		payloadFilter: logger.NewSensitiveDataFilter(nil),
	}
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		d.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return d, nil
}

// Config returns a copy of the dispatcher's configuration.
func (d *Dispatcher) Config() Config {
	return d.config
}

// Get performs a GET request
func (d *Dispatcher) Get(ctx context.Context, spec *RequestSpec) (*Response, error) {
	return d.Do(ctx, nethttp.MethodGet, spec)
}

// Post performs a POST request
func (d *Dispatcher) Post(ctx context.Context, spec *RequestSpec) (*Response, error) {
	return d.Do(ctx, nethttp.MethodPost, spec)
}

// Put performs a PUT request
func (d *Dispatcher) Put(ctx context.Context, spec *RequestSpec) (*Response, error) {
	return d.Do(ctx, nethttp.MethodPut, spec)
}

// Patch performs a PATCH request
func (d *Dispatcher) Patch(ctx context.Context, spec *RequestSpec) (*Response, error) {
	return d.Do(ctx, nethttp.MethodPatch, spec)
}

// Delete performs a DELETE request
func (d *Dispatcher) Delete(ctx context.Context, spec *RequestSpec) (*Response, error) {
	return d.Do(ctx, nethttp.MethodDelete, spec)
}

// Do dispatches a copy of spec with its method replaced by method.
func (d *Dispatcher) Do(ctx context.Context, method string, spec *RequestSpec) (*Response, error) {
	if spec == nil {
		return nil, NewValidationError("request spec cannot be nil", "request")
	}
	withMethod := *spec
	withMethod.Method = method
	return d.Dispatch(ctx, &withMethod)
}

// Dispatch sends spec, retrying transport-level failures up to MaxAttempts
// times. It returns either a Response (any status code) or an error: a
// *ValidationError when spec is unusable, a *TransportError otherwise.
func (d *Dispatcher) Dispatch(ctx context.Context, spec *RequestSpec) (*Response, error) {
	if err := validateSpec(spec); err != nil {
		return nil, err
	}
	spec = d.withDefaultHeaders(spec)

	requestID, ok := trace.RequestIDFromHeaders(spec.Headers)
	if !ok {
		requestID = trace.EnsureRequestID(ctx)
	}
	ctx = trace.WithRequestID(ctx, requestID)
	log := d.logger.WithFields(map[string]any{"request_id": requestID})

	ctx, span := d.tracer.Start(ctx, "dispatch "+spec.Method,
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(
			attribute.String(attrMethod, spec.Method),
			attribute.String(attrURL, spec.URL),
			attribute.String(attrRequestID, requestID),
		),
	)
	defer span.End()

	timeout := d.timeoutFor(spec)
	maxAttempts := d.config.MaxAttempts
	callCount := atomic.AddInt64(&d.callCount, 1)
	start := time.Now()

	for attempt := 1; ; attempt++ {
		if err := d.throttle(ctx); err != nil {
			return nil, d.exhausted(ctx, span, spec, attempt-1, err, start)
		}

		d.logSending(log, spec, attempt, maxAttempts, timeout)

		resp, err := d.transport.Perform(ctx, spec, timeout)
		if err == nil && resp == nil {
			err = errors.New("transport returned neither a response nor an error")
		}
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			log.Error().Err(err).Int("attempt", attempt).Msg("request could not be built")
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, validationErr
		}
		d.metrics.recordAttempt(ctx, spec.Method, err)

		if err == nil {
			resp.Stats.Elapsed = time.Since(start)
			resp.Stats.Attempts = attempt
			resp.Stats.CallCount = callCount
			d.logStatus(log, resp, attempt)

			span.SetAttributes(
				attribute.Int(attrStatusCode, resp.StatusCode),
				attribute.Int(attrAttempts, attempt),
			)
			d.metrics.recordDispatch(ctx, spec.Method, outcomeSuccess, resp.Stats.Elapsed)
			return resp, nil
		}

		log.Error().
			Err(err).
			Str("failure", string(ClassifyFailure(err))).
			Int("attempt", attempt).
			Int("max_attempts", maxAttempts).
			Msgf("request failed (attempt %d/%d): %v", attempt, maxAttempts, err)
		span.AddEvent("attempt failed", oteltrace.WithAttributes(
			attribute.Int(attrAttempts, attempt),
			attribute.String(attrFailureKind, string(ClassifyFailure(err))),
		))

		if attempt >= maxAttempts {
			return nil, d.exhausted(ctx, span, spec, attempt, err, start)
		}
		if ctxErr := context.Cause(ctx); ctxErr != nil {
			return nil, d.exhausted(ctx, span, spec, attempt, errors.Join(err, ctxErr), start)
		}
		if delay := d.backoffDelay(attempt); delay > 0 {
			if waitErr := d.sleep(ctx, delay); waitErr != nil {
				return nil, d.exhausted(ctx, span, spec, attempt, errors.Join(err, waitErr), start)
			}
		}
	}
}

// exhausted builds the terminal error and closes out the span and metrics.
func (d *Dispatcher) exhausted(ctx context.Context, span oteltrace.Span, spec *RequestSpec, attempts int, last error, start time.Time) error {
	terr := newTransportError(spec, attempts, last)
	span.SetAttributes(attribute.Int(attrAttempts, attempts))
	span.RecordError(terr)
	span.SetStatus(codes.Error, terr.Error())
	d.metrics.recordDispatch(ctx, spec.Method, outcomeExhausted, time.Since(start))
	return terr
}

// withDefaultHeaders returns spec, or a copy of it with the configured default
// headers underneath its own.
func (d *Dispatcher) withDefaultHeaders(spec *RequestSpec) *RequestSpec {
	if len(d.config.DefaultHeaders) == 0 {
		return spec
	}
	merged := make(map[string]string, len(d.config.DefaultHeaders)+len(spec.Headers))
	for k, v := range d.config.DefaultHeaders {
		merged[nethttp.CanonicalHeaderKey(k)] = v
	}
	for k, v := range spec.Headers {
		merged[nethttp.CanonicalHeaderKey(k)] = v
	}
	withDefaults := *spec
	withDefaults.Headers = merged
	return &withDefaults
}

func (d *Dispatcher) timeoutFor(spec *RequestSpec) time.Duration {
	if spec.Timeout > 0 {
		return spec.Timeout
	}
	return d.config.DefaultTimeout
}

func (d *Dispatcher) throttle(ctx context.Context) error {
	if d.limiter == nil {
		return nil
	}
	return d.limiter.Wait(ctx)
}

// backoffDelay returns the wait after the given failed attempt (1-based).
func (d *Dispatcher) backoffDelay(attempt int) time.Duration {
	b := d.config.Backoff
	switch b.Strategy {
	case BackoffFixed:
		return b.Delay
	case BackoffExponential:
		delay := exponentialDelay(b, attempt)
		// Full jitter: random duration in [0, delay)
		n, err := crand.Int(crand.Reader, big.NewInt(int64(delay)))
		if err != nil {
			return delay
		}
		return time.Duration(n.Int64())
	default:
		return 0
	}
}

// exponentialDelay doubles Delay per failed attempt up to MaxDelay. The cap is
// checked before shifting so large delays cannot overflow.
func exponentialDelay(b BackoffConfig, attempt int) time.Duration {
	maxDelay := b.MaxDelay
	if maxDelay <= 0 {
		maxDelay = DefaultMaxBackoff
	}
	exp := max(attempt-1, 0)
	if b.Delay <= 0 || b.Delay > maxDelay>>exp {
		return maxDelay
	}
	return b.Delay << exp
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func validateSpec(spec *RequestSpec) error {
	if spec == nil {
		return NewValidationError("request spec cannot be nil", "request")
	}
	if _, ok := supportedMethods[spec.Method]; !ok {
		return NewValidationError("unsupported method "+spec.Method, "method")
	}
	if spec.URL == "" {
		return NewValidationError("URL cannot be empty", "url")
	}
	u, err := url.Parse(spec.URL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return NewValidationError("URL must be absolute: "+spec.URL, "url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return NewValidationError("unsupported URL scheme "+u.Scheme, "url")
	}
	if spec.Timeout < 0 {
		return NewValidationError("timeout override cannot be negative", "timeout")
	}
	return nil
}

// logSending emits the pre-attempt record.
func (d *Dispatcher) logSending(log logger.Logger, spec *RequestSpec, attempt, maxAttempts int, timeout time.Duration) {
	event := log.Info().
		Str("direction", "outbound").
		Str("method", spec.Method).
		Str("url", spec.URL).
		Int("attempt", attempt).
		Int("max_attempts", maxAttempts).
		Dur("timeout", timeout)

	if d.config.LogPayloads {
		if len(spec.Headers) > 0 {
			event = event.Interface("headers", spec.Headers)
		}
		if len(spec.Query) > 0 {
			event = event.Interface("query", spec.Query)
		}
		if spec.Body != nil {
			body := spec.Body
			if s, ok := body.(string); ok {
				body = []byte(s)
			}
			event = event.Interface("body", d.payloadFilter.FilterValue("body", body))
		}
	}

	event.Msgf("sending %s request to %s", spec.Method, spec.URL)
}

// logStatus emits the post-attempt record for a received response.
func (d *Dispatcher) logStatus(log logger.Logger, resp *Response, attempt int) {
	event := log.Info().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Int("attempt", attempt).
		Dur("elapsed", resp.Stats.Elapsed).
		Int64("call_count", resp.Stats.CallCount)

	if d.config.LogPayloads && len(resp.Body) > 0 {
		body := d.payloadFilter.FilterJSON(resp.Body)
		if limit := d.config.MaxPayloadLogBytes; limit > 0 && len(body) > limit {
			body = body[:limit]
		}
		event = event.Bytes("body", body)
	}

	event.Msgf("response status code: %d", resp.StatusCode)
}
