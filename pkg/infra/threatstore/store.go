package threatstore

import (
	"context"
	"time"

	"github.com/vigil-sec/vigil/pkg/domain/threat"
)

// Store is the shared persistence surface behind the admission engine:
// windowed attempt counters, allow/deny lists, decaying suspicion scores
// and the device-fingerprint blocklist. Detectors and the pipeline hold no
// state of their own; every call is stateless given the store.
//
//go:generate mockery --name=Store --dir=. --output=../../../mocks --filename=threat_store_mock.go --case=underscore --with-expecter
type Store interface {
	AttemptCount(ctx context.Context, identifier string, idType threat.IdentifierType, window time.Duration) (int64, error)
	EndpointAttemptCount(ctx context.Context, ip, endpoint string, window time.Duration) (int64, error)
	DistinctEndpoints(ctx context.Context, ip string, window time.Duration) (int64, error)
	RecordAttempt(ctx context.Context, ip, email, endpoint string) error

	IsWhitelisted(ctx context.Context, ip string) (bool, error)
	IsBlacklisted(ctx context.Context, ip string) (bool, error)
	AddToWhitelist(ctx context.Context, ip string) error
	RemoveFromWhitelist(ctx context.Context, ip string) error
	AddToBlacklist(ctx context.Context, ip, reason string, duration time.Duration) error

	LogSuspiciousActivity(ctx context.Context, identifier string, delta float64) error
	SuspicionScore(ctx context.Context, identifier string) (float64, error)
	IsSuspicious(ctx context.Context, identifier string) (bool, error)

	IsFingerprintBlocked(ctx context.Context, fingerprint string) (bool, error)
	BlockFingerprint(ctx context.Context, fingerprint string, duration time.Duration) error
}
