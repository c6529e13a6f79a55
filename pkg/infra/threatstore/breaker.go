package threatstore

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/vigil-sec/vigil/pkg/domain/threat"
)

// Availability is implemented by stores that can report whether the backing
// datastore is reachable. The pipeline consults it to apply the configured
// fail-open/fail-closed policy.
type Availability interface {
	Available() bool
}

// breakerStore wraps a Store with a circuit breaker. Individual call
// failures degrade to zero values (counters read 0, membership checks read
// false, writes are dropped) and are logged; the overall fail policy is
// decided upstream from Available().
type breakerStore struct {
	inner  Store
	cb     *gobreaker.CircuitBreaker
	logger *logrus.Logger
}

func NewBreakerStore(inner Store, logger *logrus.Logger) Store {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "threat-store",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &breakerStore{inner: inner, cb: cb, logger: logger}
}

func (b *breakerStore) Available() bool {
	return b.cb.State() != gobreaker.StateOpen
}

func (b *breakerStore) execInt(op string, fn func() (int64, error)) int64 {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		b.logger.WithError(err).WithField("op", op).Warn("threat store call failed, degrading to zero")
		return 0
	}
	n, ok := v.(int64)
	if !ok {
		return 0
	}
	return n
}

func (b *breakerStore) execBool(op string, fn func() (bool, error)) bool {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		b.logger.WithError(err).WithField("op", op).Warn("threat store call failed, degrading to false")
		return false
	}
	res, ok := v.(bool)
	if !ok {
		return false
	}
	return res
}

func (b *breakerStore) execWrite(op string, fn func() error) {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if err != nil {
		b.logger.WithError(err).WithField("op", op).Warn("threat store write dropped")
	}
}

func (b *breakerStore) AttemptCount(
	ctx context.Context,
	identifier string,
	idType threat.IdentifierType,
	window time.Duration,
) (int64, error) {
	return b.execInt("attempt_count", func() (int64, error) {
		return b.inner.AttemptCount(ctx, identifier, idType, window)
	}), nil
}

func (b *breakerStore) EndpointAttemptCount(ctx context.Context, ip, endpoint string, window time.Duration) (int64, error) {
	return b.execInt("endpoint_attempt_count", func() (int64, error) {
		return b.inner.EndpointAttemptCount(ctx, ip, endpoint, window)
	}), nil
}

func (b *breakerStore) DistinctEndpoints(ctx context.Context, ip string, window time.Duration) (int64, error) {
	return b.execInt("distinct_endpoints", func() (int64, error) {
		return b.inner.DistinctEndpoints(ctx, ip, window)
	}), nil
}

func (b *breakerStore) RecordAttempt(ctx context.Context, ip, email, endpoint string) error {
	b.execWrite("record_attempt", func() error {
		return b.inner.RecordAttempt(ctx, ip, email, endpoint)
	})
	return nil
}

func (b *breakerStore) IsWhitelisted(ctx context.Context, ip string) (bool, error) {
	return b.execBool("is_whitelisted", func() (bool, error) {
		return b.inner.IsWhitelisted(ctx, ip)
	}), nil
}

func (b *breakerStore) IsBlacklisted(ctx context.Context, ip string) (bool, error) {
	return b.execBool("is_blacklisted", func() (bool, error) {
		return b.inner.IsBlacklisted(ctx, ip)
	}), nil
}

func (b *breakerStore) AddToWhitelist(ctx context.Context, ip string) error {
	b.execWrite("add_to_whitelist", func() error {
		return b.inner.AddToWhitelist(ctx, ip)
	})
	return nil
}

func (b *breakerStore) RemoveFromWhitelist(ctx context.Context, ip string) error {
	b.execWrite("remove_from_whitelist", func() error {
		return b.inner.RemoveFromWhitelist(ctx, ip)
	})
	return nil
}

func (b *breakerStore) AddToBlacklist(ctx context.Context, ip, reason string, duration time.Duration) error {
	b.execWrite("add_to_blacklist", func() error {
		return b.inner.AddToBlacklist(ctx, ip, reason, duration)
	})
	return nil
}

func (b *breakerStore) LogSuspiciousActivity(ctx context.Context, identifier string, delta float64) error {
	b.execWrite("log_suspicious_activity", func() error {
		return b.inner.LogSuspiciousActivity(ctx, identifier, delta)
	})
	return nil
}

func (b *breakerStore) SuspicionScore(ctx context.Context, identifier string) (float64, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.SuspicionScore(ctx, identifier)
	})
	if err != nil {
		b.logger.WithError(err).WithField("op", "suspicion_score").Warn("threat store call failed, degrading to zero")
		return 0, nil
	}
	score, ok := v.(float64)
	if !ok {
		return 0, nil
	}
	return score, nil
}

func (b *breakerStore) IsSuspicious(ctx context.Context, identifier string) (bool, error) {
	return b.execBool("is_suspicious", func() (bool, error) {
		return b.inner.IsSuspicious(ctx, identifier)
	}), nil
}

func (b *breakerStore) IsFingerprintBlocked(ctx context.Context, fingerprint string) (bool, error) {
	return b.execBool("is_fingerprint_blocked", func() (bool, error) {
		return b.inner.IsFingerprintBlocked(ctx, fingerprint)
	}), nil
}

func (b *breakerStore) BlockFingerprint(ctx context.Context, fingerprint string, duration time.Duration) error {
	b.execWrite("block_fingerprint", func() error {
		return b.inner.BlockFingerprint(ctx, fingerprint, duration)
	})
	return nil
}
