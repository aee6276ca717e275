package observability

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultShutdownTimeout bounds Shutdown when the caller passes no timeout.
const DefaultShutdownTimeout = 10 * time.Second

// Shutdown flushes pending telemetry and shuts provider down within timeout.
// Flush and shutdown errors are both reported.
func Shutdown(provider Provider, timeout time.Duration) error {
	if provider == nil {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	flushErr := provider.ForceFlush(ctx)
	shutdownErr := provider.Shutdown(ctx)
	if err := errors.Join(flushErr, shutdownErr); err != nil {
		return fmt.Errorf("observability shutdown failed: %w", err)
	}
	return nil
}
