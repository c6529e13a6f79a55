package middleware_test

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vigil-sec/vigil/internal/audit"
	"github.com/vigil-sec/vigil/mocks"
	"github.com/vigil-sec/vigil/pkg/common"
	"github.com/vigil-sec/vigil/pkg/config"
	"github.com/vigil-sec/vigil/pkg/detectors"
	"github.com/vigil-sec/vigil/pkg/middleware"
	"github.com/vigil-sec/vigil/pkg/pipeline"
	"github.com/vigil-sec/vigil/pkg/types"
)

func testApp(t *testing.T, store *mocks.ThreatStore, dets []detectors.Detector) *fiber.App {
	logger := logrus.New()
	cfg := config.NewManager(&config.Config{
		Engine: config.EngineConfig{FailMode: config.FailModeOpen},
	})
	p := pipeline.New(logger, store, cfg, dets, audit.NewLogSink(logger))

	app := fiber.New()
	app.Use(middleware.NewSecurityMiddleware(logger, p, middleware.NewSignalExtractor(logger)).Middleware())
	app.All("/*", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func stubDetector(t *testing.T, name string, weight float64, result *types.CheckResult) detectors.Detector {
	d := mocks.NewDetector(t)
	d.On("Name").Return(name).Maybe()
	d.On("Weight").Return(weight).Maybe()
	d.On("Evaluate", mock.Anything, mock.Anything).Return(result).Maybe()
	return d
}

func TestSecurityMiddleware_DeniedRequest(t *testing.T) {
	store := mocks.NewThreatStore(t)
	store.On("IsWhitelisted", mock.Anything, mock.Anything).Return(false, nil)
	store.On("IsBlacklisted", mock.Anything, mock.Anything).Return(true, nil)

	app := testApp(t, store, nil)

	req := httptest.NewRequest("GET", "/login", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "denied", resp.Header.Get(common.SecurityDecisionHeader))

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Blacklisted IP", body["reason"])
	assert.Equal(t, 1.0, body["risk_score"])
}

func TestSecurityMiddleware_ChallengedRequest(t *testing.T) {
	store := mocks.NewThreatStore(t)
	store.On("IsWhitelisted", mock.Anything, mock.Anything).Return(false, nil)
	store.On("IsBlacklisted", mock.Anything, mock.Anything).Return(false, nil)

	dets := []detectors.Detector{
		stubDetector(t, "rate_limit", 1.0, &types.CheckResult{Allowed: true, RiskScore: 0.6}),
	}
	app := testApp(t, store, dets)

	req := httptest.NewRequest("GET", "/login", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "captcha", resp.Header.Get(common.ChallengeTypeHeader))
	assert.Equal(t, "60", resp.Header.Get(fiber.HeaderRetryAfter))

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["challenge_required"])
	assert.Equal(t, "captcha", body["challenge_type"])
}

func TestSecurityMiddleware_AllowedRequest(t *testing.T) {
	store := mocks.NewThreatStore(t)
	store.On("IsWhitelisted", mock.Anything, mock.Anything).Return(false, nil)
	store.On("IsBlacklisted", mock.Anything, mock.Anything).Return(false, nil)

	dets := []detectors.Detector{
		stubDetector(t, "rate_limit", 1.0, &types.CheckResult{Allowed: true, RiskScore: 0}),
	}
	app := testApp(t, store, dets)

	req := httptest.NewRequest("GET", "/api/data", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "allowed", resp.Header.Get(common.SecurityDecisionHeader))
	assert.Equal(t, "0.00", resp.Header.Get(common.SecurityScoreHeader))

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(payload))
}

func captureSignal(t *testing.T) (*fiber.App, **types.RequestSignal) {
	extractor := middleware.NewSignalExtractor(logrus.New())
	var captured *types.RequestSignal
	app := fiber.New()
	app.All("/*", func(c *fiber.Ctx) error {
		captured = extractor.Extract(c)
		return c.SendString("ok")
	})
	return app, &captured
}

func TestSignalExtractor_IPPreferenceChain(t *testing.T) {
	app, captured := captureSignal(t)

	req := httptest.NewRequest("GET", "/login", nil)
	req.Header.Set("CF-Connecting-IP", "203.0.113.7")
	req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.2")
	_, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, "203.0.113.7", (*captured).IP)
}

func TestSignalExtractor_ForwardedForFirstSegment(t *testing.T) {
	app, captured := captureSignal(t)

	req := httptest.NewRequest("GET", "/login", nil)
	req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.2")
	_, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, "198.51.100.1", (*captured).IP)
}

func TestSignalExtractor_PrivateFallback(t *testing.T) {
	app, captured := captureSignal(t)

	req := httptest.NewRequest("GET", "/login", nil)
	req.Header.Set("X-Forwarded-For", "192.168.1.5")
	_, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.5", (*captured).IP)
}

func TestSignalExtractor_HeadersAndFingerprint(t *testing.T) {
	app, captured := captureSignal(t)

	req := httptest.NewRequest("POST", "/login", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("X-Custom-Header", "value")
	req.Header.Set("X-Fingerprint", "device-1")
	_, err := app.Test(req)
	require.NoError(t, err)

	signal := *captured
	assert.Equal(t, "Mozilla/5.0", signal.UserAgent)
	assert.Equal(t, "value", signal.Headers["x-custom-header"])
	assert.Equal(t, "device-1", signal.Fingerprint)
	assert.Equal(t, "/login", signal.Endpoint)
	assert.Equal(t, "POST", signal.Method)
}

func TestSignalExtractor_JSONEmail(t *testing.T) {
	app, captured := captureSignal(t)

	req := httptest.NewRequest("POST", "/login", strings.NewReader(`{"email":"user@example.com"}`))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	_, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, "user@example.com", (*captured).Email)
}

func TestSignalExtractor_UsernameFallback(t *testing.T) {
	app, captured := captureSignal(t)

	req := httptest.NewRequest("POST", "/login", strings.NewReader(`{"username":"user@example.com"}`))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	_, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, "user@example.com", (*captured).Email)
}

func TestSignalExtractor_FormEmail(t *testing.T) {
	app, captured := captureSignal(t)

	req := httptest.NewRequest("POST", "/login", strings.NewReader("email=user%40example.com"))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	_, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, "user@example.com", (*captured).Email)
}
