package threatstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/vigil-sec/vigil/pkg/cache"
	"github.com/vigil-sec/vigil/pkg/domain/threat"
)

const (
	attemptKeyPattern         = "attempts:%s:%s"          // type, identifier
	endpointAttemptKeyPattern = "attempts:endpoint:%s:%s" // ip, endpoint
	endpointsByIPKeyPattern   = "endpoints:%s"            // ip
	whitelistKeyPattern       = "list:allow:%s"           // ip
	blacklistKeyPattern       = "list:deny:%s"            // ip
	suspicionKeyPattern       = "suspicion:%s"            // identifier
	fingerprintBlockedPattern = "fp:%s:blocked"           // fingerprint

	suspicionScoreField   = "score"
	suspicionUpdatedField = "updated_at"

	// Attempt sets retain a full day so the 24h counters stay answerable.
	attemptRetention = 24 * time.Hour
	attemptKeyTTL    = 25 * time.Hour
	suspicionKeyTTL  = 7 * 24 * time.Hour
)

type RedisStoreOpts struct {
	TimeProvider func() time.Time
	UuidProvider func() uuid.UUID
}

type redisStore struct {
	redis              *cache.Cache
	suspicionThreshold float64
	suspicionHalfLife  time.Duration
	timeProvider       func() time.Time
	uuidProvider       func() uuid.UUID
}

func NewRedisStore(
	redisCache *cache.Cache,
	suspicionThreshold float64,
	suspicionHalfLife time.Duration,
	opts *RedisStoreOpts,
) Store {
	timeProvider := time.Now
	uuidProvider := uuid.New
	if opts != nil && opts.TimeProvider != nil {
		timeProvider = opts.TimeProvider
	}
	if opts != nil && opts.UuidProvider != nil {
		uuidProvider = opts.UuidProvider
	}
	return &redisStore{
		redis:              redisCache,
		suspicionThreshold: suspicionThreshold,
		suspicionHalfLife:  suspicionHalfLife,
		timeProvider:       timeProvider,
		uuidProvider:       uuidProvider,
	}
}

func (s *redisStore) AttemptCount(
	ctx context.Context,
	identifier string,
	idType threat.IdentifierType,
	window time.Duration,
) (int64, error) {
	key := fmt.Sprintf(attemptKeyPattern, idType, identifier)
	return s.windowCount(ctx, key, window)
}

func (s *redisStore) EndpointAttemptCount(
	ctx context.Context,
	ip, endpoint string,
	window time.Duration,
) (int64, error) {
	key := fmt.Sprintf(endpointAttemptKeyPattern, ip, endpoint)
	return s.windowCount(ctx, key, window)
}

func (s *redisStore) DistinctEndpoints(
	ctx context.Context,
	ip string,
	window time.Duration,
) (int64, error) {
	key := fmt.Sprintf(endpointsByIPKeyPattern, ip)
	return s.windowCount(ctx, key, window)
}

func (s *redisStore) windowCount(ctx context.Context, key string, window time.Duration) (int64, error) {
	now := s.timeProvider()
	windowStart := now.Add(-window).Unix()
	count, err := s.redis.Client().ZCount(ctx, key,
		strconv.FormatInt(windowStart, 10),
		strconv.FormatInt(now.Unix(), 10)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count window %s: %w", key, err)
	}
	return count, nil
}

// RecordAttempt appends one attempt for the IP (and email, if present) plus
// the per-endpoint counter and the distinct-endpoint set, in a single
// transactional pipeline so a count never observes a half-written attempt.
func (s *redisStore) RecordAttempt(ctx context.Context, ip, email, endpoint string) error {
	now := s.timeProvider()
	retentionStart := strconv.FormatInt(now.Add(-attemptRetention).Unix(), 10)
	member := fmt.Sprintf("%d:%s", now.Unix(), s.uuidProvider().String())
	score := float64(now.Unix())

	pipe := s.redis.Client().TxPipeline()

	ipKey := fmt.Sprintf(attemptKeyPattern, threat.IdentifierIP, ip)
	pipe.ZRemRangeByScore(ctx, ipKey, "0", retentionStart)
	pipe.ZAdd(ctx, ipKey, &redis.Z{Score: score, Member: member})
	pipe.Expire(ctx, ipKey, attemptKeyTTL)

	endpointKey := fmt.Sprintf(endpointAttemptKeyPattern, ip, endpoint)
	pipe.ZRemRangeByScore(ctx, endpointKey, "0", retentionStart)
	pipe.ZAdd(ctx, endpointKey, &redis.Z{Score: score, Member: member})
	pipe.Expire(ctx, endpointKey, attemptKeyTTL)

	endpointsKey := fmt.Sprintf(endpointsByIPKeyPattern, ip)
	pipe.ZRemRangeByScore(ctx, endpointsKey, "0", retentionStart)
	pipe.ZAdd(ctx, endpointsKey, &redis.Z{Score: score, Member: endpoint})
	pipe.Expire(ctx, endpointsKey, attemptKeyTTL)

	if email != "" {
		emailKey := fmt.Sprintf(attemptKeyPattern, threat.IdentifierEmail, email)
		pipe.ZRemRangeByScore(ctx, emailKey, "0", retentionStart)
		pipe.ZAdd(ctx, emailKey, &redis.Z{Score: score, Member: member})
		pipe.Expire(ctx, emailKey, attemptKeyTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

func (s *redisStore) IsWhitelisted(ctx context.Context, ip string) (bool, error) {
	return s.keyExists(ctx, fmt.Sprintf(whitelistKeyPattern, ip))
}

func (s *redisStore) IsBlacklisted(ctx context.Context, ip string) (bool, error) {
	// Expired entries disappear with the key TTL, so existence is enough.
	return s.keyExists(ctx, fmt.Sprintf(blacklistKeyPattern, ip))
}

func (s *redisStore) AddToWhitelist(ctx context.Context, ip string) error {
	if err := s.redis.Client().Set(ctx, fmt.Sprintf(whitelistKeyPattern, ip), "1", 0).Err(); err != nil {
		return fmt.Errorf("failed to whitelist %s: %w", ip, err)
	}
	return nil
}

func (s *redisStore) RemoveFromWhitelist(ctx context.Context, ip string) error {
	if err := s.redis.Client().Del(ctx, fmt.Sprintf(whitelistKeyPattern, ip)).Err(); err != nil {
		return fmt.Errorf("failed to remove %s from whitelist: %w", ip, err)
	}
	return nil
}

func (s *redisStore) AddToBlacklist(ctx context.Context, ip, reason string, duration time.Duration) error {
	if err := s.redis.Client().Set(ctx, fmt.Sprintf(blacklistKeyPattern, ip), reason, duration).Err(); err != nil {
		return fmt.Errorf("failed to blacklist %s: %w", ip, err)
	}
	return nil
}

// LogSuspiciousActivity adds delta on top of the current decayed score.
func (s *redisStore) LogSuspiciousActivity(ctx context.Context, identifier string, delta float64) error {
	current, err := s.SuspicionScore(ctx, identifier)
	if err != nil {
		return err
	}
	now := s.timeProvider()
	next := current + delta
	if next < 0 {
		next = 0
	}

	key := fmt.Sprintf(suspicionKeyPattern, identifier)
	pipe := s.redis.Client().TxPipeline()
	pipe.HSet(ctx, key,
		suspicionScoreField, strconv.FormatFloat(next, 'f', -1, 64),
		suspicionUpdatedField, strconv.FormatInt(now.Unix(), 10),
	)
	pipe.Expire(ctx, key, suspicionKeyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to log suspicious activity for %s: %w", identifier, err)
	}
	return nil
}

// SuspicionScore returns the stored score decayed by the time elapsed since
// its last update. Decay is computed lazily at read time; nothing sweeps in
// the background.
func (s *redisStore) SuspicionScore(ctx context.Context, identifier string) (float64, error) {
	key := fmt.Sprintf(suspicionKeyPattern, identifier)
	fields, err := s.redis.Client().HGetAll(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read suspicion score for %s: %w", identifier, err)
	}
	if len(fields) == 0 {
		return 0, nil
	}

	score, err := strconv.ParseFloat(fields[suspicionScoreField], 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt suspicion score for %s: %w", identifier, err)
	}
	updatedAt, err := strconv.ParseInt(fields[suspicionUpdatedField], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt suspicion timestamp for %s: %w", identifier, err)
	}

	return s.decay(score, time.Unix(updatedAt, 0)), nil
}

func (s *redisStore) IsSuspicious(ctx context.Context, identifier string) (bool, error) {
	score, err := s.SuspicionScore(ctx, identifier)
	if err != nil {
		return false, err
	}
	return score > s.suspicionThreshold, nil
}

func (s *redisStore) IsFingerprintBlocked(ctx context.Context, fingerprint string) (bool, error) {
	return s.keyExists(ctx, fmt.Sprintf(fingerprintBlockedPattern, fingerprint))
}

func (s *redisStore) BlockFingerprint(ctx context.Context, fingerprint string, duration time.Duration) error {
	key := fmt.Sprintf(fingerprintBlockedPattern, fingerprint)
	if err := s.redis.Client().Set(ctx, key, "1", duration).Err(); err != nil {
		return fmt.Errorf("failed to block fingerprint: %w", err)
	}
	return nil
}

func (s *redisStore) keyExists(ctx context.Context, key string) (bool, error) {
	exists, err := s.redis.Client().Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", key, err)
	}
	return exists == 1, nil
}

// decay halves the score once per half-life elapsed since lastUpdated.
// Never returns a negative value.
func (s *redisStore) decay(score float64, lastUpdated time.Time) float64 {
	elapsed := s.timeProvider().Sub(lastUpdated)
	if elapsed <= 0 {
		return score
	}
	decayed := score * math.Pow(0.5, elapsed.Seconds()/s.suspicionHalfLife.Seconds())
	if decayed < 0 {
		return 0
	}
	return decayed
}
