package behavior_test

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/vigil-sec/vigil/mocks"
	"github.com/vigil-sec/vigil/pkg/config"
	"github.com/vigil-sec/vigil/pkg/detectors/behavior"
	"github.com/vigil-sec/vigil/pkg/domain/threat"
	"github.com/vigil-sec/vigil/pkg/types"
)

func testConfig() *config.Manager {
	return config.NewManager(&config.Config{
		Engine: config.EngineConfig{
			Behavior: config.BehaviorConfig{
				SessionWindowSeconds:   300,
				FrequencyWindowSeconds: 60,
				MaxConcurrentSessions:  5,
				MaxFrequency:           10,
			},
		},
	})
}

func testSignal() *types.RequestSignal {
	return &types.RequestSignal{
		IP:        "1.2.3.4",
		UserAgent: "Mozilla/5.0",
		Endpoint:  "/api/data",
		Method:    "GET",
		Timestamp: time.Now(),
	}
}

func TestBehaviorDetector_Name(t *testing.T) {
	detector := behavior.NewDetector(logrus.New(), mocks.NewThreatStore(t), testConfig())
	assert.Equal(t, "behavior", detector.Name())
	assert.InDelta(t, 0.20, detector.Weight(), 0.0001)
}

func TestBehaviorDetector_CleanTraffic(t *testing.T) {
	store := mocks.NewThreatStore(t)
	store.On("DistinctEndpoints", mock.Anything, "1.2.3.4", 5*time.Minute).Return(int64(2), nil)
	store.On("AttemptCount", mock.Anything, "1.2.3.4", threat.IdentifierIP, time.Minute).Return(int64(3), nil)

	detector := behavior.NewDetector(logrus.New(), store, testConfig())
	result := detector.Evaluate(context.Background(), testSignal())

	assert.True(t, result.Allowed)
	assert.Zero(t, result.RiskScore)
	assert.False(t, result.ChallengeRequired)
}

func TestBehaviorDetector_BothThresholdsTripped(t *testing.T) {
	store := mocks.NewThreatStore(t)
	store.On("DistinctEndpoints", mock.Anything, "1.2.3.4", 5*time.Minute).Return(int64(6), nil)
	store.On("AttemptCount", mock.Anything, "1.2.3.4", threat.IdentifierIP, time.Minute).Return(int64(11), nil)

	detector := behavior.NewDetector(logrus.New(), store, testConfig())
	result := detector.Evaluate(context.Background(), testSignal())

	// Never denies on its own, however bad the traffic shape looks.
	assert.True(t, result.Allowed)
	assert.InDelta(t, 0.9, result.RiskScore, 0.0001)
	assert.True(t, result.ChallengeRequired)
	assert.Equal(t, types.ChallengeCaptcha, result.ChallengeType)
}

func TestBehaviorDetector_FrequencyOnly(t *testing.T) {
	store := mocks.NewThreatStore(t)
	store.On("DistinctEndpoints", mock.Anything, "1.2.3.4", 5*time.Minute).Return(int64(1), nil)
	store.On("AttemptCount", mock.Anything, "1.2.3.4", threat.IdentifierIP, time.Minute).Return(int64(30), nil)

	detector := behavior.NewDetector(logrus.New(), store, testConfig())
	result := detector.Evaluate(context.Background(), testSignal())

	assert.True(t, result.Allowed)
	assert.InDelta(t, 0.5, result.RiskScore, 0.0001)
	assert.False(t, result.ChallengeRequired)
}

func TestBehaviorDetector_StoreErrorFailsOpen(t *testing.T) {
	store := mocks.NewThreatStore(t)
	store.On("DistinctEndpoints", mock.Anything, "1.2.3.4", 5*time.Minute).Return(int64(0), assert.AnError)
	store.On("AttemptCount", mock.Anything, "1.2.3.4", threat.IdentifierIP, time.Minute).Return(int64(0), assert.AnError)

	detector := behavior.NewDetector(logrus.New(), store, testConfig())
	result := detector.Evaluate(context.Background(), testSignal())

	assert.True(t, result.Allowed)
	assert.Zero(t, result.RiskScore)
}
