package threatstore_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vigil-sec/vigil/pkg/cache"
	"github.com/vigil-sec/vigil/pkg/domain/threat"
	"github.com/vigil-sec/vigil/pkg/infra/threatstore"
)

const (
	testThreshold = 10.0
	testHalfLife  = time.Hour
)

func newTestStore(t *testing.T, fixedTime time.Time, uid uuid.UUID) (threatstore.Store, redismock.ClientMock) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	store := threatstore.NewRedisStore(
		cache.NewCacheWithClient(client),
		testThreshold,
		testHalfLife,
		&threatstore.RedisStoreOpts{
			TimeProvider: func() time.Time { return fixedTime },
			UuidProvider: func() uuid.UUID { return uid },
		},
	)
	return store, mock
}

func TestRedisStore_AttemptCount(t *testing.T) {
	fixedTime := time.Unix(1740730536, 0)
	store, mock := newTestStore(t, fixedTime, uuid.New())

	window := 15 * time.Minute
	windowStart := fixedTime.Add(-window).Unix()
	mock.ExpectZCount(
		"attempts:ip:1.2.3.4",
		strconv.FormatInt(windowStart, 10),
		strconv.FormatInt(fixedTime.Unix(), 10),
	).SetVal(3)

	count, err := store.AttemptCount(context.Background(), "1.2.3.4", threat.IdentifierIP, window)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_AttemptCount_Idempotent(t *testing.T) {
	fixedTime := time.Unix(1740730536, 0)
	store, mock := newTestStore(t, fixedTime, uuid.New())

	window := 15 * time.Minute
	windowStart := strconv.FormatInt(fixedTime.Add(-window).Unix(), 10)
	now := strconv.FormatInt(fixedTime.Unix(), 10)

	mock.ExpectZCount("attempts:ip:1.2.3.4", windowStart, now).SetVal(7)
	mock.ExpectZCount("attempts:ip:1.2.3.4", windowStart, now).SetVal(7)

	first, err := store.AttemptCount(context.Background(), "1.2.3.4", threat.IdentifierIP, window)
	require.NoError(t, err)
	second, err := store.AttemptCount(context.Background(), "1.2.3.4", threat.IdentifierIP, window)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_RecordAttempt(t *testing.T) {
	fixedTime := time.Unix(1740730536, 0)
	uid := uuid.New()
	store, mock := newTestStore(t, fixedTime, uid)

	retentionStart := strconv.FormatInt(fixedTime.Add(-24*time.Hour).Unix(), 10)
	member := strconv.FormatInt(fixedTime.Unix(), 10) + ":" + uid.String()
	score := float64(fixedTime.Unix())

	mock.ExpectTxPipeline()

	mock.ExpectZRemRangeByScore("attempts:ip:1.2.3.4", "0", retentionStart).SetVal(0)
	mock.ExpectZAdd("attempts:ip:1.2.3.4", &redis.Z{Score: score, Member: member}).SetVal(1)
	mock.ExpectExpire("attempts:ip:1.2.3.4", 25*time.Hour).SetVal(true)

	mock.ExpectZRemRangeByScore("attempts:endpoint:1.2.3.4:/login", "0", retentionStart).SetVal(0)
	mock.ExpectZAdd("attempts:endpoint:1.2.3.4:/login", &redis.Z{Score: score, Member: member}).SetVal(1)
	mock.ExpectExpire("attempts:endpoint:1.2.3.4:/login", 25*time.Hour).SetVal(true)

	mock.ExpectZRemRangeByScore("endpoints:1.2.3.4", "0", retentionStart).SetVal(0)
	mock.ExpectZAdd("endpoints:1.2.3.4", &redis.Z{Score: score, Member: "/login"}).SetVal(1)
	mock.ExpectExpire("endpoints:1.2.3.4", 25*time.Hour).SetVal(true)

	mock.ExpectZRemRangeByScore("attempts:email:user@example.com", "0", retentionStart).SetVal(0)
	mock.ExpectZAdd("attempts:email:user@example.com", &redis.Z{Score: score, Member: member}).SetVal(1)
	mock.ExpectExpire("attempts:email:user@example.com", 25*time.Hour).SetVal(true)

	mock.ExpectTxPipelineExec()

	err := store.RecordAttempt(context.Background(), "1.2.3.4", "user@example.com", "/login")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Lists(t *testing.T) {
	fixedTime := time.Unix(1740730536, 0)
	store, mock := newTestStore(t, fixedTime, uuid.New())

	mock.ExpectSet("list:allow:10.0.0.1", "1", 0).SetVal("OK")
	mock.ExpectExists("list:allow:10.0.0.1").SetVal(1)
	mock.ExpectSet("list:deny:6.6.6.6", "too many attempts", time.Hour).SetVal("OK")
	mock.ExpectExists("list:deny:6.6.6.6").SetVal(1)
	mock.ExpectExists("list:deny:8.8.8.8").SetVal(0)

	require.NoError(t, store.AddToWhitelist(context.Background(), "10.0.0.1"))
	whitelisted, err := store.IsWhitelisted(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, whitelisted)

	require.NoError(t, store.AddToBlacklist(context.Background(), "6.6.6.6", "too many attempts", time.Hour))
	blacklisted, err := store.IsBlacklisted(context.Background(), "6.6.6.6")
	require.NoError(t, err)
	assert.True(t, blacklisted)

	clean, err := store.IsBlacklisted(context.Background(), "8.8.8.8")
	require.NoError(t, err)
	assert.False(t, clean)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_SuspicionScore_Decay(t *testing.T) {
	loggedAt := time.Unix(1740730536, 0)
	readAt := loggedAt.Add(testHalfLife)
	store, mock := newTestStore(t, readAt, uuid.New())

	mock.ExpectHGetAll("suspicion:1.2.3.4").SetVal(map[string]string{
		"score":      "20",
		"updated_at": strconv.FormatInt(loggedAt.Unix(), 10),
	})

	score, err := store.SuspicionScore(context.Background(), "1.2.3.4")
	require.NoError(t, err)

	// One half-life elapsed: strictly below the logged value, never negative.
	assert.Less(t, score, 20.0)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.InDelta(t, 10.0, score, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_SuspicionScore_Missing(t *testing.T) {
	fixedTime := time.Unix(1740730536, 0)
	store, mock := newTestStore(t, fixedTime, uuid.New())

	mock.ExpectHGetAll("suspicion:nobody").SetVal(map[string]string{})

	score, err := store.SuspicionScore(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Zero(t, score)
}

func TestRedisStore_IsSuspicious(t *testing.T) {
	fixedTime := time.Unix(1740730536, 0)
	store, mock := newTestStore(t, fixedTime, uuid.New())

	mock.ExpectHGetAll("suspicion:1.2.3.4").SetVal(map[string]string{
		"score":      "50",
		"updated_at": strconv.FormatInt(fixedTime.Unix(), 10),
	})
	mock.ExpectHGetAll("suspicion:5.6.7.8").SetVal(map[string]string{
		"score":      "2",
		"updated_at": strconv.FormatInt(fixedTime.Unix(), 10),
	})

	suspicious, err := store.IsSuspicious(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, suspicious)

	benign, err := store.IsSuspicious(context.Background(), "5.6.7.8")
	require.NoError(t, err)
	assert.False(t, benign)
}

func TestRedisStore_LogSuspiciousActivity(t *testing.T) {
	fixedTime := time.Unix(1740730536, 0)
	store, mock := newTestStore(t, fixedTime, uuid.New())

	mock.ExpectHGetAll("suspicion:1.2.3.4").SetVal(map[string]string{
		"score":      "4",
		"updated_at": strconv.FormatInt(fixedTime.Unix(), 10),
	})
	mock.ExpectTxPipeline()
	mock.ExpectHSet("suspicion:1.2.3.4",
		"score", "9",
		"updated_at", strconv.FormatInt(fixedTime.Unix(), 10),
	).SetVal(1)
	mock.ExpectExpire("suspicion:1.2.3.4", 7*24*time.Hour).SetVal(true)
	mock.ExpectTxPipelineExec()

	err := store.LogSuspiciousActivity(context.Background(), "1.2.3.4", 5)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_FingerprintBlocklist(t *testing.T) {
	fixedTime := time.Unix(1740730536, 0)
	store, mock := newTestStore(t, fixedTime, uuid.New())

	mock.ExpectSet("fp:device-1:blocked", "1", time.Hour).SetVal("OK")
	mock.ExpectExists("fp:device-1:blocked").SetVal(1)
	mock.ExpectExists("fp:device-2:blocked").SetVal(0)

	require.NoError(t, store.BlockFingerprint(context.Background(), "device-1", time.Hour))

	blocked, err := store.IsFingerprintBlocked(context.Background(), "device-1")
	require.NoError(t, err)
	assert.True(t, blocked)

	clean, err := store.IsFingerprintBlocked(context.Background(), "device-2")
	require.NoError(t, err)
	assert.False(t, clean)
}
