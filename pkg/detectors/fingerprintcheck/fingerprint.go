package fingerprintcheck

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/vigil-sec/vigil/pkg/detectors"
	"github.com/vigil-sec/vigil/pkg/infra/threatstore"
	"github.com/vigil-sec/vigil/pkg/types"
)

const (
	DetectorName = "fingerprint"
	Weight       = 0.10

	// A client that never supplied a fingerprint carries a small baseline
	// risk rather than zero.
	missingFingerprintRisk = 0.1
)

type Detector struct {
	logger *logrus.Logger
	store  threatstore.Store
}

func NewDetector(logger *logrus.Logger, store threatstore.Store) detectors.Detector {
	return &Detector{logger: logger, store: store}
}

func (d *Detector) Name() string {
	return DetectorName
}

func (d *Detector) Weight() float64 {
	return Weight
}

func (d *Detector) Evaluate(ctx context.Context, signal *types.RequestSignal) *types.CheckResult {
	if signal.Fingerprint == "" {
		return &types.CheckResult{
			Allowed:   true,
			RiskScore: missingFingerprintRisk,
			Details:   []string{"fingerprint_missing"},
		}
	}

	blocked, err := d.store.IsFingerprintBlocked(ctx, signal.Fingerprint)
	if err != nil {
		d.logger.WithError(err).Warn("fingerprint lookup failed, treating as not blocked")
		blocked = false
	}
	if blocked {
		return &types.CheckResult{
			Allowed:   false,
			RiskScore: 0.95,
			Reason:    "Blocked device fingerprint",
		}
	}

	return &types.CheckResult{Allowed: true, RiskScore: 0}
}
