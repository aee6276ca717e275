package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"sync"
	"time"
)

// Response is a received HTTP response. The body has been fully read; JSON
// decoding happens lazily on first use.
type Response struct {
	StatusCode int
	Headers    nethttp.Header
	Body       []byte
	Stats      Stats

	jsonOnce  sync.Once
	jsonValue any
	jsonErr   error
}

// Stats contains request execution statistics
type Stats struct {
	// Elapsed covers the whole dispatch, failed attempts included
	Elapsed time.Duration
	// Attempts is the number of attempts the dispatch needed
	Attempts int
	// CallCount is the dispatcher-wide sequence number of this dispatch
	CallCount int64
}

// Bytes returns the raw body.
func (r *Response) Bytes() []byte {
	return r.Body
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// JSON parses the body once and returns the decoded value. Numbers are kept as
// json.Number so integers can be told apart from floats.
func (r *Response) JSON() (any, error) {
	r.jsonOnce.Do(func() {
		dec := json.NewDecoder(bytes.NewReader(r.Body))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			r.jsonErr = fmt.Errorf("response body is not valid JSON (status %d): %w", r.StatusCode, err)
			return
		}
		if dec.More() {
			r.jsonErr = fmt.Errorf("response body has trailing data after JSON value (status %d)", r.StatusCode)
			return
		}
		r.jsonValue = v
	})
	return r.jsonValue, r.jsonErr
}

// DecodeJSON unmarshals the body into v.
func (r *Response) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response body (status %d): %w", r.StatusCode, err)
	}
	return nil
}

// IsSuccess reports whether the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return IsSuccessStatus(r.StatusCode)
}
