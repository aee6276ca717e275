package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// ClientError is implemented by every error the dispatcher returns.
type ClientError interface {
	error
	Type() ErrorType
}

// ErrorType defines the category of a dispatch error
type ErrorType string

const (
	TransportErrorType  ErrorType = "transport"
	ValidationErrorType ErrorType = "validation"
)

// FailureKind classifies a transport-level failure.
type FailureKind string

const (
	FailureTimeout           FailureKind = "timeout"
	FailureDNS               FailureKind = "dns"
	FailureConnectionRefused FailureKind = "connection_refused"
	FailureConnectionReset   FailureKind = "connection_reset"
	FailureCanceled          FailureKind = "canceled"
	FailureNetwork           FailureKind = "network"
)

// TransportError is returned when every attempt of a dispatch failed before
// an HTTP response was received.
type TransportError struct {
	Method   string
	URL      string
	Attempts int
	Kind     FailureKind
	Last     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %s %s failed after %d attempt(s) (%s): %v",
		e.Method, e.URL, e.Attempts, e.Kind, e.Last)
}

func (e *TransportError) Type() ErrorType {
	return TransportErrorType
}

func (e *TransportError) Unwrap() error {
	return e.Last
}

// ValidationError reports an unusable request spec or dispatch configuration.
// No attempt is made when it is returned.
type ValidationError struct {
	Message string
	Field   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s (field: %s)", e.Message, e.Field)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Type() ErrorType {
	return ValidationErrorType
}

// NewValidationError creates a new validation error
func NewValidationError(message, field string) *ValidationError {
	return &ValidationError{Message: message, Field: field}
}

func newTransportError(spec *RequestSpec, attempts int, last error) *TransportError {
	return &TransportError{
		Method:   spec.Method,
		URL:      spec.URL,
		Attempts: attempts,
		Kind:     ClassifyFailure(last),
		Last:     last,
	}
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errorType ErrorType) bool {
	if err == nil {
		return false
	}
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type() == errorType
	}
	return false
}

// AsTransportError returns the *TransportError in err's chain, if any.
func AsTransportError(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// IsTimeout reports whether err is a client-side timeout. A server-sent 408
// is a Response, never an error, so it is not covered here.
func IsTimeout(err error) bool {
	return err != nil && ClassifyFailure(err) == FailureTimeout
}

// ClassifyFailure maps a transport failure onto a FailureKind.
func ClassifyFailure(err error) FailureKind {
	if err == nil {
		return ""
	}
	if te, ok := AsTransportError(err); ok && te.Kind != "" {
		return te.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	if errors.Is(err, context.Canceled) {
		return FailureCanceled
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return FailureTimeout
		}
		return FailureDNS
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return FailureConnectionRefused
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return FailureConnectionReset
	}
	return FailureNetwork
}

// IsSuccessStatus checks if a status code represents success (2xx)
func IsSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
