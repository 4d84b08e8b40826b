package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorker_RunsJobsUntilStopped(t *testing.T) {
	w := NewWorker(time.Second)
	var ticks, failures atomic.Int32
	require.NoError(t, w.Register("tick", 5*time.Millisecond, func(ctx context.Context) error {
		ticks.Add(1)
		return nil
	}))
	require.NoError(t, w.Register("flaky", 5*time.Millisecond, func(ctx context.Context) error {
		failures.Add(1)
		return errors.New("boom")
	}))
	require.NoError(t, w.Register("panics", 5*time.Millisecond, func(ctx context.Context) error {
		panic("bad job")
	}))

	w.Start(context.Background())
	assert.Eventually(t, func() bool {
		return ticks.Load() >= 3 && failures.Load() >= 3
	}, time.Second, 5*time.Millisecond)
	w.Stop()

	after := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, ticks.Load(), "no runs after Stop")

	w.Stop()
}

func TestWorker_Register(t *testing.T) {
	w := NewWorker(0)
	assert.Error(t, w.Register("bad", 0, func(context.Context) error { return nil }))

	w.Start(context.Background())
	defer w.Stop()
	assert.Error(t, w.Register("late", time.Second, func(context.Context) error { return nil }))
}

func TestWorker_StopsWithParentContext(t *testing.T) {
	w := NewWorker(time.Second)
	var ticks atomic.Int32
	require.NoError(t, w.Register("tick", 5*time.Millisecond, func(ctx context.Context) error {
		ticks.Add(1)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	assert.Eventually(t, func() bool { return ticks.Load() > 0 }, time.Second, 5*time.Millisecond)
	cancel()
	w.Stop()
}
