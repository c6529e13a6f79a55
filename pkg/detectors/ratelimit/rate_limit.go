package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vigil-sec/vigil/pkg/config"
	"github.com/vigil-sec/vigil/pkg/detectors"
	"github.com/vigil-sec/vigil/pkg/domain/threat"
	"github.com/vigil-sec/vigil/pkg/infra/threatstore"
	"github.com/vigil-sec/vigil/pkg/types"
)

const (
	DetectorName = "rate_limit"
	Weight       = 0.30

	ipDailyWindow = 24 * time.Hour
)

type Detector struct {
	logger *logrus.Logger
	store  threatstore.Store
	cfg    *config.Manager
}

func NewDetector(logger *logrus.Logger, store threatstore.Store, cfg *config.Manager) detectors.Detector {
	return &Detector{logger: logger, store: store, cfg: cfg}
}

func (d *Detector) Name() string {
	return DetectorName
}

func (d *Detector) Weight() float64 {
	return Weight
}

// Evaluate checks four limits in fixed order: per-endpoint burst, IP window,
// IP daily, account window. The first violated limit decides the result; a
// non-denied request is recorded as an attempt.
func (d *Detector) Evaluate(ctx context.Context, signal *types.RequestSignal) *types.CheckResult {
	cfg := d.cfg.Engine().RateLimit
	window := time.Duration(cfg.WindowSeconds) * time.Second
	endpointWindow := time.Duration(cfg.EndpointWindowSeconds) * time.Second

	endpointRate := d.count(func() (int64, error) {
		return d.store.EndpointAttemptCount(ctx, signal.IP, signal.Endpoint, endpointWindow)
	})
	if endpointRate >= int64(cfg.EndpointLimit) {
		return &types.CheckResult{
			Allowed:   false,
			RiskScore: 0.95,
			Reason:    "Too many requests to this endpoint",
			Details:   []string{fmt.Sprintf("endpoint_rate=%d", endpointRate)},
		}
	}

	ipAttempts := d.count(func() (int64, error) {
		return d.store.AttemptCount(ctx, signal.IP, threat.IdentifierIP, window)
	})
	if ipAttempts >= int64(cfg.LoginAttemptsLimit) {
		// Escalation: repeated violations earn the IP a temporary blacklisting.
		blacklistFor := time.Duration(cfg.BlacklistSeconds) * time.Second
		if err := d.store.AddToBlacklist(ctx, signal.IP, "Repeated rate limit violations", blacklistFor); err != nil {
			d.logger.WithError(err).WithField("ip", signal.IP).Warn("failed to blacklist ip")
		}
		return &types.CheckResult{
			Allowed:   false,
			RiskScore: 0.9,
			Reason:    "Too many attempts from this IP",
			Details:   []string{fmt.Sprintf("ip_attempts=%d", ipAttempts)},
		}
	}

	ipDaily := d.count(func() (int64, error) {
		return d.store.AttemptCount(ctx, signal.IP, threat.IdentifierIP, ipDailyWindow)
	})
	if ipDaily >= int64(cfg.IPDailyLimit) {
		return &types.CheckResult{
			Allowed:   false,
			RiskScore: 0.85,
			Reason:    "Daily request limit exceeded for this IP",
			Details:   []string{fmt.Sprintf("ip_daily=%d", ipDaily)},
		}
	}

	if signal.Email != "" {
		emailAttempts := d.count(func() (int64, error) {
			return d.store.AttemptCount(ctx, signal.Email, threat.IdentifierEmail, window)
		})
		if emailAttempts >= int64(cfg.UserDailyLimit) {
			return &types.CheckResult{
				Allowed:   false,
				RiskScore: 0.8,
				Reason:    "Too many attempts for this account",
				Details:   []string{fmt.Sprintf("email_attempts=%d", emailAttempts)},
			}
		}
	}

	if err := d.store.RecordAttempt(ctx, signal.IP, signal.Email, signal.Endpoint); err != nil {
		d.logger.WithError(err).WithField("ip", signal.IP).Warn("failed to record attempt")
	}

	risk := float64(ipAttempts) / float64(cfg.LoginAttemptsLimit)
	if risk > 0.95 {
		risk = 0.95
	}
	result := &types.CheckResult{
		Allowed:   true,
		RiskScore: risk,
		Details:   []string{fmt.Sprintf("ip_attempts=%d", ipAttempts)},
	}
	if risk > 0.5 {
		result.ChallengeRequired = true
		result.ChallengeType = types.ChallengeCaptcha
	}
	return result
}

// count degrades a failed store read to zero so a store outage never turns
// into a hard deny here; the fail policy for full outages lives upstream.
func (d *Detector) count(fn func() (int64, error)) int64 {
	n, err := fn()
	if err != nil {
		d.logger.WithError(err).Warn("rate limit count failed, treating as zero")
		return 0
	}
	return n
}
