package cache

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insight-flow/backend/internal/monitoring"
)

func TestMemoryStore(t *testing.T) {
	clock := newFakeClock()
	m := NewMemoryStore()
	m.now = clock.Now

	m.Add("a", clock.Now().Add(time.Minute))
	m.Add("b", clock.Now().Add(time.Hour))
	m.Add("b", clock.Now().Add(time.Second))
	assert.True(t, m.Contains("a"))
	assert.False(t, m.Contains("missing"))

	clock.Advance(time.Minute)
	assert.False(t, m.Contains("a"), "expiry instant is exclusive")
	assert.True(t, m.Contains("b"), "a shorter expiry never shrinks an entry")
	assert.Equal(t, 1, m.Len())

	m.Add("c", clock.Now().Add(time.Second))
	clock.Advance(2 * time.Second)
	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Len())
}

func TestDenylist_MemoryOnly(t *testing.T) {
	ctx := context.Background()
	d := NewDenylist()

	require.NoError(t, d.Revoke(ctx, "jti-1", time.Now().Add(time.Minute)))
	assert.True(t, d.IsRevoked(ctx, "jti-1"))
	assert.False(t, d.IsRevoked(ctx, "jti-2"))

	require.NoError(t, d.Revoke(ctx, "old", time.Now().Add(-time.Second)))
	assert.False(t, d.IsRevoked(ctx, "old"))
	require.NoError(t, d.Revoke(ctx, "", time.Now().Add(time.Minute)))
}

func TestDenylist_SharedThroughRedis(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedis(t)

	first := NewDenylist(WithRedis(store, nil))
	second := NewDenylist(WithRedis(store, nil))

	require.NoError(t, first.Revoke(ctx, "jti-1", time.Now().Add(time.Minute)))
	assert.True(t, mr.Exists(denylistPrefix+"jti-1"))
	ttl := mr.TTL(denylistPrefix + "jti-1")
	assert.True(t, ttl > 0 && ttl <= time.Minute, "ttl %v", ttl)

	assert.True(t, second.IsRevoked(ctx, "jti-1"))

	mr.FastForward(2 * time.Minute)
	assert.False(t, second.IsRevoked(ctx, "jti-1"))
}

func TestDenylist_FailsOpenWhenRedisDown(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedis(t)
	d := NewDenylist(WithRedis(store, NewCircuitBreaker(&CircuitBreakerConfig{
		Name:              "test",
		MaxFailures:       1,
		Timeout:           time.Hour,
		HalfOpenSuccesses: 1,
	})))
	mr.Close()

	before := testutil.ToFloat64(monitoring.DenylistErrorsTotal.WithLabelValues("check"))
	assert.False(t, d.IsRevoked(ctx, "unknown"))
	assert.Equal(t, before+1, testutil.ToFloat64(monitoring.DenylistErrorsTotal.WithLabelValues("check")))

	require.NoError(t, d.Revoke(ctx, "jti-1", time.Now().Add(time.Minute)))
	assert.True(t, d.IsRevoked(ctx, "jti-1"), "memory still answers")
	assert.Equal(t, CircuitBreakerOpen, d.breaker.State())
}
