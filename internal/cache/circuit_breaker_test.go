package cache

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend failed")

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestBreaker(clock *fakeClock) *CircuitBreaker {
	cb := NewCircuitBreaker(&CircuitBreakerConfig{
		Name:              "test",
		MaxFailures:       2,
		Timeout:           time.Second,
		HalfOpenSuccesses: 2,
	})
	cb.now = clock.Now
	return cb
}

func fail() error    { return errBackend }
func succeed() error { return nil }

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb := newTestBreaker(newFakeClock())

	assert.ErrorIs(t, cb.Execute(fail), errBackend)
	assert.Equal(t, CircuitBreakerClosed, cb.State())

	require.NoError(t, cb.Execute(succeed))
	assert.ErrorIs(t, cb.Execute(fail), errBackend)
	assert.Equal(t, CircuitBreakerClosed, cb.State(), "success resets the failure count")

	assert.ErrorIs(t, cb.Execute(fail), errBackend)
	assert.Equal(t, CircuitBreakerOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitBreakerOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock)
	_ = cb.Execute(fail)
	_ = cb.Execute(fail)
	require.Equal(t, CircuitBreakerOpen, cb.State())

	clock.Advance(time.Second)
	require.NoError(t, cb.Execute(succeed))
	assert.Equal(t, CircuitBreakerHalfOpen, cb.State())

	require.NoError(t, cb.Execute(succeed))
	assert.Equal(t, CircuitBreakerClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock)
	_ = cb.Execute(fail)
	_ = cb.Execute(fail)

	clock.Advance(2 * time.Second)
	assert.ErrorIs(t, cb.Execute(fail), errBackend)
	assert.Equal(t, CircuitBreakerOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(succeed), ErrCircuitBreakerOpen)
}

func TestCircuitBreaker_SingleProbeInHalfOpen(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock)
	_ = cb.Execute(fail)
	_ = cb.Execute(fail)
	clock.Advance(time.Second)

	inProbe := make(chan struct{})
	finish := make(chan struct{})
	done := make(chan error)
	go func() {
		done <- cb.Execute(func() error {
			close(inProbe)
			<-finish
			return nil
		})
	}()

	<-inProbe
	assert.ErrorIs(t, cb.Execute(succeed), ErrCircuitBreakerOpen)
	close(finish)
	assert.NoError(t, <-done)
}

func TestCircuitBreaker_Concurrent(t *testing.T) {
	cb := NewCircuitBreaker(nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_ = cb.Execute(func() error {
					if (id+j)%4 == 0 {
						return errBackend
					}
					return nil
				})
			}
		}(i)
	}
	wg.Wait()

	err := cb.Execute(succeed)
	if err != nil {
		assert.ErrorIs(t, err, ErrCircuitBreakerOpen)
	}
}

func TestCircuitBreakerState_String(t *testing.T) {
	assert.Equal(t, "closed", CircuitBreakerClosed.String())
	assert.Equal(t, "open", CircuitBreakerOpen.String())
	assert.Equal(t, "half-open", CircuitBreakerHalfOpen.String())
}
