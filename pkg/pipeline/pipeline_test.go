package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestComposeOrder(t *testing.T) {
	var order []string
	tag := func(name string) Behavior[int, int] {
		return func(next Step[int, int]) Step[int, int] {
			return func(ctx context.Context, in int) (int, error) {
				order = append(order, name)
				return next(ctx, in)
			}
		}
	}

	step := Compose(func(ctx context.Context, in int) (int, error) {
		order = append(order, "step")
		return in * 2, nil
	}, tag("outer"), tag("inner"))

	out, err := step(context.Background(), 21)
	require.NoError(t, err)
	assert.Equal(t, 42, out)
	assert.Equal(t, []string{"outer", "inner", "step"}, order)
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	step := Compose(func(ctx context.Context, in int) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return in, nil
	}, Retry[int, int](5, time.Millisecond))

	out, err := step(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, out)
	assert.Equal(t, 3, calls)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	step := Compose(func(ctx context.Context, in int) (int, error) {
		calls++
		return 0, boom
	}, Retry[int, int](3, time.Millisecond))

	_, err := step(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	step := Compose(func(ctx context.Context, in int) (int, error) {
		return 0, errors.New("always")
	}, Retry[int, int](3, time.Hour))

	_, err := step(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecoverConvertsPanic(t *testing.T) {
	step := Compose(func(ctx context.Context, in int) (int, error) {
		panic("kaboom")
	}, Recover[int, int](nil))

	var err error
	assert.NotPanics(t, func() {
		_, err = step(context.Background(), 1)
	})
	assert.ErrorContains(t, err, "kaboom")
}

func TestTimingLogsSlowSteps(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	step := Compose(func(ctx context.Context, in int) (int, error) {
		time.Sleep(5 * time.Millisecond)
		return in, nil
	}, Timing[int, int]("slow-op", logger, time.Millisecond))

	_, err := step(context.Background(), 1)
	require.NoError(t, err)

	entries := logs.FilterMessage("slow step").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "slow-op", entries[0].ContextMap()["step"])
}
