// Package pipeline composes cross-cutting behaviors around a unit of work,
// in the same spirit as the HTTP middleware chain but for arbitrary
// request/response pairs inside the application.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Step is the unit of work a pipeline wraps.
type Step[T, R any] func(ctx context.Context, input T) (R, error)

// Behavior wraps a step with additional logic, analogous to an HTTP
// middleware wrapping a handler.
type Behavior[T, R any] func(next Step[T, R]) Step[T, R]

// Compose applies behaviors around a step. The first behavior is the
// outermost.
func Compose[T, R any](step Step[T, R], behaviors ...Behavior[T, R]) Step[T, R] {
	for i := len(behaviors) - 1; i >= 0; i-- {
		step = behaviors[i](step)
	}
	return step
}

// Timing logs the elapsed time of each execution at debug level, and at
// warn level when it exceeds slowThreshold.
func Timing[T, R any](name string, logger *zap.Logger, slowThreshold time.Duration) Behavior[T, R] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next Step[T, R]) Step[T, R] {
		return func(ctx context.Context, input T) (R, error) {
			start := time.Now()
			out, err := next(ctx, input)
			elapsed := time.Since(start)

			fields := []zap.Field{
				zap.String("step", name),
				zap.Duration("elapsed", elapsed),
			}
			if slowThreshold > 0 && elapsed > slowThreshold {
				logger.Warn("slow step", fields...)
			} else {
				logger.Debug("step completed", fields...)
			}
			return out, err
		}
	}
}

// Retry re-executes a failing step up to attempts times, doubling the delay
// between tries. The context cancels waiting between attempts.
func Retry[T, R any](attempts int, initialDelay time.Duration) Behavior[T, R] {
	if attempts < 1 {
		attempts = 1
	}
	return func(next Step[T, R]) Step[T, R] {
		return func(ctx context.Context, input T) (R, error) {
			var out R
			var err error

			delay := initialDelay
			for attempt := 1; attempt <= attempts; attempt++ {
				out, err = next(ctx, input)
				if err == nil {
					return out, nil
				}
				if attempt == attempts {
					break
				}
				select {
				case <-ctx.Done():
					var zero R
					return zero, ctx.Err()
				case <-time.After(delay):
				}
				delay *= 2
			}

			var zero R
			return zero, fmt.Errorf("after %d attempts: %w", attempts, err)
		}
	}
}

// Recover converts a panicking step into an error return.
func Recover[T, R any](logger *zap.Logger) Behavior[T, R] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next Step[T, R]) Step[T, R] {
		return func(ctx context.Context, input T) (out R, err error) {
			defer func() {
				if p := recover(); p != nil {
					logger.Error("step panicked", zap.Any("panic", p))
					var zero R
					out = zero
					err = fmt.Errorf("step panicked: %v", p)
				}
			}()
			return next(ctx, input)
		}
	}
}
