package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/gaborage/apitest/trace"
)

const (
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"
)

// HTTPTransport performs attempts with net/http.
type HTTPTransport struct {
	client     *nethttp.Client
	propagator propagation.TextMapPropagator
}

var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport wraps client. A nil client gets a fresh *http.Client
// without a client-level timeout; the per-attempt deadline bounds each call.
func NewHTTPTransport(client *nethttp.Client) *HTTPTransport {
	if client == nil {
		client = &nethttp.Client{}
	}
	return &HTTPTransport{client: client}
}

// Perform sends spec once. The timeout covers connecting, sending and reading
// the whole body. Failures to build the request are reported as *ValidationError.
func (t *HTTPTransport) Perform(ctx context.Context, spec *RequestSpec, timeout time.Duration) (*Response, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	httpReq, err := t.buildRequest(ctx, spec)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
		Stats:      Stats{Elapsed: time.Since(start)},
	}, nil
}

// buildRequest constructs an *http.Request without touching spec.
func (t *HTTPTransport) buildRequest(ctx context.Context, spec *RequestSpec) (*nethttp.Request, error) {
	target, err := withQuery(spec.URL, spec.Query)
	if err != nil {
		return nil, NewValidationError("invalid URL: "+err.Error(), "url")
	}

	payload, isJSON, err := encodeBody(spec.Body)
	if err != nil {
		return nil, NewValidationError("body is not JSON-serializable: "+err.Error(), "body")
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := nethttp.NewRequestWithContext(ctx, spec.Method, target, body)
	if err != nil {
		return nil, NewValidationError("failed to create HTTP request: "+err.Error(), "request")
	}

	for key, value := range spec.Headers {
		httpReq.Header.Set(key, value)
	}
	if isJSON && httpReq.Header.Get(headerContentType) == "" {
		httpReq.Header.Set(headerContentType, contentTypeJSON)
	}
	if httpReq.Header.Get(trace.HeaderXRequestID) == "" {
		if id, ok := trace.RequestIDFromContext(ctx); ok {
			httpReq.Header.Set(trace.HeaderXRequestID, id)
		}
	}

	propagator := t.propagator
	if propagator == nil {
		propagator = otel.GetTextMapPropagator()
	}
	propagator.Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	return httpReq, nil
}

// withQuery merges query into the query string already present on rawURL.
func withQuery(rawURL string, query map[string]string) (string, error) {
	if len(query) == 0 {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	values := u.Query()
	for k, v := range query {
		values.Set(k, v)
	}
	u.RawQuery = values.Encode()
	return u.String(), nil
}

// encodeBody returns the wire payload and whether it was JSON-encoded here.
func encodeBody(body any) ([]byte, bool, error) {
	switch b := body.(type) {
	case nil:
		return nil, false, nil
	case []byte:
		return b, false, nil
	case json.RawMessage:
		return b, true, nil
	case string:
		return []byte(b), false, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, false, err
		}
		return data, true, nil
	}
}
