// Package dispatch issues one logical HTTP request with a bounded retry loop,
// a per-attempt deadline and structured logging, and hands the raw response
// back to the caller for assertions.
//
// Retries
//   - Only transport-level failures are retried: connection refused or reset,
//     DNS failures and client-side timeouts.
//   - Any received HTTP response ends the dispatch, whatever its status code.
//     A 4xx/5xx (including a server-sent 408) is returned as a Response.
//   - At most Config.MaxAttempts attempts are made. When all fail, Dispatch
//     returns a *TransportError carrying the last failure and the attempt count.
//
// Timeouts
//   - Each attempt runs under one deadline covering connect, headers and body
//     read: RequestSpec.Timeout when set, Config.DefaultTimeout otherwise.
//   - A deadline firing consumes an attempt like any other transport failure.
//
// Backoff
//   - None by default; retries are immediate.
//   - BackoffFixed waits Delay between attempts. BackoffExponential waits
//     Delay*2^(attempt-1) with full jitter, capped at MaxDelay.
//
// Logging
//   - One "sending" record before each attempt and one outcome record after it
//     ("response status code" or "request failed"), all tagged with the
//     dispatch request ID that is also sent as X-Request-ID.
package dispatch
