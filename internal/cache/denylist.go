package cache

import (
	"context"
	"time"

	"insight-flow/backend/internal/logger"
	"insight-flow/backend/internal/monitoring"
)

const denylistPrefix = "denylist:jti:"

// Denylist remembers revoked token ids until the token would have expired
// anyway. Every revocation lands in memory. When a RedisStore is attached
// revocations are shared through it as well, guarded by a circuit breaker.
// Redis failures never reject a request: the check falls back to memory.
type Denylist struct {
	mem     *MemoryStore
	redis   *RedisStore
	breaker *CircuitBreaker
	now     func() time.Time
}

type DenylistOption func(*Denylist)

// WithRedis shares revocations through store. A nil breaker gets the
// defaults.
func WithRedis(store *RedisStore, breaker *CircuitBreaker) DenylistOption {
	return func(d *Denylist) {
		d.redis = store
		if breaker == nil {
			breaker = NewCircuitBreaker(nil)
		}
		d.breaker = breaker
	}
}

func NewDenylist(opts ...DenylistOption) *Denylist {
	d := &Denylist{mem: NewMemoryStore(), now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Revoke records jti until the given instant. Already expired tokens are
// ignored.
func (d *Denylist) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := until.Sub(d.now())
	if jti == "" || ttl <= 0 {
		return nil
	}
	d.mem.Add(jti, until)

	if d.redis == nil {
		return nil
	}
	err := d.breaker.Execute(func() error {
		return d.redis.Set(ctx, denylistPrefix+jti, "1", ttl)
	})
	if err != nil {
		d.skip("revoke", jti, err)
	}
	return nil
}

func (d *Denylist) IsRevoked(ctx context.Context, jti string) bool {
	if d.mem.Contains(jti) {
		return true
	}
	if d.redis == nil {
		return false
	}

	var found bool
	err := d.breaker.Execute(func() error {
		var err error
		found, err = d.redis.Exists(ctx, denylistPrefix+jti)
		return err
	})
	if err != nil {
		d.skip("check", jti, err)
		return false
	}
	return found
}

// Sweep drops expired in-memory entries. Redis expires its own keys.
func (d *Denylist) Sweep() int {
	return d.mem.Sweep()
}

func (d *Denylist) skip(op, jti string, err error) {
	monitoring.DenylistErrorsTotal.WithLabelValues(op).Inc()
	log := logger.Get()
	log.Warn().Err(err).Str("op", op).Str("jti", jti).Msg("denylist backend unavailable")
}
