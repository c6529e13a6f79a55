package email

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vigil-sec/vigil/pkg/config"
	"github.com/vigil-sec/vigil/pkg/detectors"
	"github.com/vigil-sec/vigil/pkg/types"
	"github.com/vigil-sec/vigil/pkg/utils"
)

const (
	DetectorName = "email"
	Weight       = 0.15

	maxTypoDistance = 2
)

type Detector struct {
	logger *logrus.Logger
	cfg    *config.Manager
}

func NewDetector(logger *logrus.Logger, cfg *config.Manager) detectors.Detector {
	return &Detector{logger: logger, cfg: cfg}
}

func (d *Detector) Name() string {
	return DetectorName
}

func (d *Detector) Weight() float64 {
	return Weight
}

func (d *Detector) Evaluate(ctx context.Context, signal *types.RequestSignal) *types.CheckResult {
	if signal.Email == "" {
		return &types.CheckResult{Allowed: true, RiskScore: 0}
	}

	if !emailFormat.MatchString(signal.Email) {
		return &types.CheckResult{
			Allowed:   false,
			RiskScore: 0.8,
			Reason:    "Invalid email format",
		}
	}

	local, domain := splitEmail(signal.Email)

	if d.isDisposable(domain) {
		return &types.CheckResult{
			Allowed:   false,
			RiskScore: 0.85,
			Reason:    "Disposable email domain",
			Details:   []string{"domain:" + domain},
		}
	}

	for _, popular := range popularDomains {
		if domain == popular {
			return &types.CheckResult{Allowed: true, RiskScore: 0}
		}
	}

	// A domain one or two edits away from a popular provider is most likely
	// a typo or a deliberate look-alike.
	for _, popular := range popularDomains {
		distance := utils.LevenshteinDistance(domain, popular)
		if distance >= 1 && distance <= maxTypoDistance {
			return &types.CheckResult{
				Allowed:           true,
				RiskScore:         0.8,
				ChallengeRequired: true,
				ChallengeType:     types.ChallengeCaptcha,
				Details: []string{
					"possible_typo:" + domain,
					"suggested_email=" + local + "@" + popular,
				},
			}
		}
	}

	return &types.CheckResult{Allowed: true, RiskScore: 0}
}

func (d *Detector) isDisposable(domain string) bool {
	blocked := d.cfg.Engine().Email.DisposableDomains
	if len(blocked) == 0 {
		blocked = defaultDisposableDomains
	}
	for _, b := range blocked {
		if strings.EqualFold(domain, b) {
			return true
		}
	}
	return false
}

func splitEmail(address string) (local, domain string) {
	at := strings.LastIndex(address, "@")
	if at < 0 {
		return address, ""
	}
	return address[:at], strings.ToLower(address[at+1:])
}
