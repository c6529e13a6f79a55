package fingerprintcheck_test

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/vigil-sec/vigil/mocks"
	"github.com/vigil-sec/vigil/pkg/detectors/fingerprintcheck"
	"github.com/vigil-sec/vigil/pkg/types"
)

func signalWithFingerprint(fp string) *types.RequestSignal {
	return &types.RequestSignal{
		IP:          "1.2.3.4",
		UserAgent:   "Mozilla/5.0",
		Endpoint:    "/login",
		Method:      "POST",
		Fingerprint: fp,
		Timestamp:   time.Now(),
	}
}

func TestFingerprintDetector_Name(t *testing.T) {
	detector := fingerprintcheck.NewDetector(logrus.New(), mocks.NewThreatStore(t))
	assert.Equal(t, "fingerprint", detector.Name())
	assert.InDelta(t, 0.10, detector.Weight(), 0.0001)
}

func TestFingerprintDetector_MissingFingerprint(t *testing.T) {
	detector := fingerprintcheck.NewDetector(logrus.New(), mocks.NewThreatStore(t))
	result := detector.Evaluate(context.Background(), signalWithFingerprint(""))

	assert.True(t, result.Allowed)
	assert.Equal(t, 0.1, result.RiskScore)
	assert.Contains(t, result.Details, "fingerprint_missing")
}

func TestFingerprintDetector_Blocked(t *testing.T) {
	store := mocks.NewThreatStore(t)
	store.On("IsFingerprintBlocked", mock.Anything, "device-1").Return(true, nil)

	detector := fingerprintcheck.NewDetector(logrus.New(), store)
	result := detector.Evaluate(context.Background(), signalWithFingerprint("device-1"))

	assert.False(t, result.Allowed)
	assert.Equal(t, 0.95, result.RiskScore)
	assert.Equal(t, "Blocked device fingerprint", result.Reason)
}

func TestFingerprintDetector_Clean(t *testing.T) {
	store := mocks.NewThreatStore(t)
	store.On("IsFingerprintBlocked", mock.Anything, "device-2").Return(false, nil)

	detector := fingerprintcheck.NewDetector(logrus.New(), store)
	result := detector.Evaluate(context.Background(), signalWithFingerprint("device-2"))

	assert.True(t, result.Allowed)
	assert.Zero(t, result.RiskScore)
}

func TestFingerprintDetector_LookupErrorFailsOpen(t *testing.T) {
	store := mocks.NewThreatStore(t)
	store.On("IsFingerprintBlocked", mock.Anything, "device-3").Return(false, assert.AnError)

	detector := fingerprintcheck.NewDetector(logrus.New(), store)
	result := detector.Evaluate(context.Background(), signalWithFingerprint("device-3"))

	assert.True(t, result.Allowed)
	assert.Zero(t, result.RiskScore)
}
