package features

import (
	"context"
	"fmt"
	"time"
)

// withRetry calls fn up to attempts times, sleeping base*2^n between tries.
// The last error is returned when every attempt fails.
func withRetry(ctx context.Context, attempts int, base time.Duration, fn func(attempt int) error) error {
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			return fmt.Errorf("features: canceled: %w", cerr)
		}
		if err = fn(attempt); err == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}
		if serr := sleepWithContext(ctx, base*time.Duration(1<<attempt)); serr != nil {
			return serr
		}
	}
	return fmt.Errorf("features: failed after %d attempts: %w", attempts, err)
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("features: canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
