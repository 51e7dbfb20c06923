// Copyright 2025 Busmock Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package dispatch

import (
	"context"
	"fmt"
	"time"
)

// RetryExhaustedError is returned when a handler failed on every attempt.
type RetryExhaustedError struct {
	HandlerID string
	EventID   string
	Attempts  int
	Err       error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("handler %s failed after %d attempt(s): %v", e.HandlerID, e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Err }

// retryFunc is one invocation attempt. attempt starts at 1.
type retryFunc func(ctx context.Context, attempt int) error

// withRetry calls fn until it succeeds or maxAttempts is reached, waiting delay
// between attempts. It returns the number of attempts made and the last error.
// Cancelling ctx aborts the wait before the next attempt.
func withRetry(ctx context.Context, maxAttempts int, delay time.Duration, fn retryFunc) (int, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return attempt, nil
		}

		if attempt == maxAttempts {
			return attempt, lastErr
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return attempt, fmt.Errorf("%w (last error: %v)", ctx.Err(), lastErr)
		}
	}
	return maxAttempts, lastErr
}
