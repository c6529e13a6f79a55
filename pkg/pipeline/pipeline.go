package pipeline

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vigil-sec/vigil/internal/audit"
	"github.com/vigil-sec/vigil/pkg/common"
	"github.com/vigil-sec/vigil/pkg/config"
	"github.com/vigil-sec/vigil/pkg/detectors"
	"github.com/vigil-sec/vigil/pkg/infra/prometheus"
	"github.com/vigil-sec/vigil/pkg/infra/threatstore"
	"github.com/vigil-sec/vigil/pkg/types"
)

const (
	denyThreshold      = 0.85
	mfaThreshold       = 0.70
	captchaThreshold   = 0.50
	suspicionPerDenial = 10.0
)

// RiskPipeline runs the detector sweep over a request signal and renders the
// final admission decision. It never returns an error: store failures degrade
// inside the detectors and the store decorators, and every call produces a
// Decision.
type RiskPipeline struct {
	logger    *logrus.Logger
	store     threatstore.Store
	cfg       *config.Manager
	detectors []detectors.Detector
	audit     audit.Sink
}

func New(
	logger *logrus.Logger,
	store threatstore.Store,
	cfg *config.Manager,
	dets []detectors.Detector,
	sink audit.Sink,
) *RiskPipeline {
	return &RiskPipeline{
		logger:    logger,
		store:     store,
		cfg:       cfg,
		detectors: dets,
		audit:     sink,
	}
}

// Decide evaluates the signal. Order: allow/deny lists, signal validation,
// then the weighted detector sweep with deny short-circuit and threshold
// tiering on the accumulated score.
func (p *RiskPipeline) Decide(ctx context.Context, signal *types.RequestSignal) *types.Decision {
	start := time.Now()
	defer func() {
		prometheus.DecisionDuration.Observe(time.Since(start).Seconds())
	}()

	engine := p.cfg.Engine()

	if avail, ok := p.store.(threatstore.Availability); ok && !avail.Available() {
		prometheus.StoreUnavailable.Set(1)
		if engine.FailMode == config.FailModeClosed {
			return p.finish(ctx, signal, &types.Decision{
				Allowed:   false,
				Reason:    "Security backend unavailable",
				RiskScore: 1.0,
			})
		}
	} else {
		prometheus.StoreUnavailable.Set(0)
	}

	if listed, err := p.store.IsWhitelisted(ctx, signal.IP); err == nil && listed {
		return p.finish(ctx, signal, &types.Decision{
			Allowed:   true,
			Reason:    "Whitelisted IP",
			RiskScore: 0,
		})
	}
	if listed, err := p.store.IsBlacklisted(ctx, signal.IP); err == nil && listed {
		return p.finish(ctx, signal, &types.Decision{
			Allowed:   false,
			Reason:    "Blacklisted IP",
			RiskScore: 1.0,
		})
	}

	if signal.IP == "" || signal.UserAgent == "" || signal.Endpoint == "" {
		return p.finish(ctx, signal, &types.Decision{
			Allowed:   false,
			Reason:    "Malformed request signal",
			RiskScore: 1.0,
		})
	}

	var (
		total        float64
		checksPassed []string
		challenge    types.ChallengeType
	)

	for _, detector := range p.detectors {
		if !engine.RuleEnabled(detector.Name()) {
			continue
		}

		result := detector.Evaluate(ctx, signal)

		if !result.Allowed {
			prometheus.DetectorDenials.WithLabelValues(detector.Name()).Inc()
			p.raiseSuspicion(ctx, signal.IP, result.RiskScore)
			return p.finish(ctx, signal, &types.Decision{
				Allowed:           false,
				Reason:            result.Reason,
				RiskScore:         result.RiskScore,
				ChallengeRequired: result.ChallengeRequired,
				ChallengeType:     result.ChallengeType,
				ChecksPassed:      checksPassed,
				ChecksFailed:      []string{detector.Name()},
			})
		}

		total += result.RiskScore * detector.Weight()
		checksPassed = append(checksPassed, detector.Name())
		if result.ChallengeRequired && result.ChallengeType.StrongerThan(challenge) {
			challenge = result.ChallengeType
		}
	}

	if total > denyThreshold {
		p.raiseSuspicion(ctx, signal.IP, total)
		return p.finish(ctx, signal, &types.Decision{
			Allowed:      false,
			Reason:       "Critical risk threshold exceeded",
			RiskScore:    total,
			ChecksPassed: checksPassed,
		})
	}

	switch {
	case total > mfaThreshold:
		if types.ChallengeMultiFactor.StrongerThan(challenge) {
			challenge = types.ChallengeMultiFactor
		}
	case total > captchaThreshold:
		if types.ChallengeCaptcha.StrongerThan(challenge) {
			challenge = types.ChallengeCaptcha
		}
	}

	return p.finish(ctx, signal, &types.Decision{
		Allowed:           true,
		RiskScore:         total,
		ChallengeRequired: challenge != types.ChallengeNone,
		ChallengeType:     challenge,
		ChecksPassed:      checksPassed,
	})
}

// raiseSuspicion bumps the IP's decaying suspicion score after a denial. The
// bump scales with the risk that caused the denial.
func (p *RiskPipeline) raiseSuspicion(ctx context.Context, ip string, risk float64) {
	if ip == "" {
		return
	}
	if err := p.store.LogSuspiciousActivity(ctx, ip, risk*suspicionPerDenial); err != nil {
		p.logger.WithError(err).WithField("ip", ip).Warn("suspicion update failed")
	}
}

func (p *RiskPipeline) finish(ctx context.Context, signal *types.RequestSignal, decision *types.Decision) *types.Decision {
	decision.Timestamp = time.Now()

	outcome := "allowed"
	if !decision.Allowed {
		outcome = "denied"
	} else if decision.ChallengeRequired {
		outcome = "challenged"
	}
	prometheus.DecisionsTotal.WithLabelValues(outcome).Inc()
	prometheus.RiskScore.Observe(decision.RiskScore)

	traceID, _ := ctx.Value(common.TraceIdKey).(string)
	p.audit.Record(ctx, audit.Entry{
		IP:        signal.IP,
		Email:     signal.Email,
		Endpoint:  signal.Endpoint,
		Score:     decision.RiskScore,
		Allowed:   decision.Allowed,
		Reason:    decision.Reason,
		TraceID:   traceID,
		Timestamp: decision.Timestamp,
	})
	return decision
}
