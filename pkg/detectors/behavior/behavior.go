package behavior

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
	DetectorName = "behavior"
	Weight       = 0.20

	maxScore = 0.95
)

// Detector scores traffic shape for an IP: how many distinct endpoints it
// touched recently (a proxy for concurrent sessions) and how fast it is
// sending requests. It never denies on its own.
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

func (d *Detector) Evaluate(ctx context.Context, signal *types.RequestSignal) *types.CheckResult {
	cfg := d.cfg.Engine().Behavior

	score := 0.0
	var details []string

	endpoints, err := d.store.DistinctEndpoints(
		ctx, signal.IP, time.Duration(cfg.SessionWindowSeconds)*time.Second)
	if err != nil {
		d.logger.WithError(err).Warn("distinct endpoint count failed, treating as zero")
		endpoints = 0
	}
	if endpoints > int64(cfg.MaxConcurrentSessions) {
		score += 0.4
		details = append(details, fmt.Sprintf("concurrent_sessions=%d", endpoints))
	}

	frequency, err := d.store.AttemptCount(
		ctx, signal.IP, threat.IdentifierIP, time.Duration(cfg.FrequencyWindowSeconds)*time.Second)
	if err != nil {
		d.logger.WithError(err).Warn("frequency count failed, treating as zero")
		frequency = 0
	}
	if frequency > int64(cfg.MaxFrequency) {
		score += 0.5
		details = append(details, fmt.Sprintf("request_frequency=%d", frequency))
	}

	if score > maxScore {
		score = maxScore
	}

	result := &types.CheckResult{
		Allowed:   true,
		RiskScore: score,
		Details:   details,
	}
	if score > 0.5 {
		result.ChallengeRequired = true
		result.ChallengeType = types.ChallengeCaptcha
	}
	return result
}
