package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vigil-sec/vigil/pkg/config"
	"github.com/vigil-sec/vigil/pkg/detectors"
	"github.com/vigil-sec/vigil/pkg/types"
	"github.com/vigil-sec/vigil/pkg/utils"
)

const (
	DetectorName = "bot_detection"
	Weight       = 0.25

	maxIndicators   = 10.0
	blockThreshold  = 0.75
	minUserAgentLen = 10
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
	cfg := d.cfg.Engine().Bot

	ua := strings.ToLower(signal.UserAgent)
	indicators := 0.0
	var details []string

	keywords := cfg.Keywords
	if len(keywords) == 0 {
		keywords = defaultKeywords
	}
	for _, keyword := range keywords {
		if strings.Contains(ua, keyword) {
			indicators += 2
			details = append(details, "keyword:"+keyword)
		}
	}

	if len(ua) < minUserAgentLen {
		indicators += 1.5
		details = append(details, "short_user_agent")
	}

	for _, header := range requiredHeaders {
		if _, ok := signal.Headers[header]; !ok {
			indicators += 0.5
			details = append(details, "missing_header:"+header)
		}
	}

	if inconsistent(ua, signal.Headers) {
		indicators += 1
		details = append(details, "ua_header_mismatch")
	}

	for _, sig := range headlessSignatures {
		if strings.Contains(ua, sig) {
			indicators += 1.5
			details = append(details, "headless:"+sig)
			break
		}
	}

	if info := utils.ParseUserAgent(signal.UserAgent); info != nil {
		details = append(details, "device:"+info.Device, "browser:"+info.Browser)
	}

	botScore := indicators / maxIndicators
	if botScore > 1.0 {
		botScore = 1.0
	}
	details = append(details, fmt.Sprintf("bot_score=%.2f", botScore))

	if botScore > blockThreshold && cfg.BlockEnabled {
		return &types.CheckResult{
			Allowed:   false,
			RiskScore: botScore,
			Reason:    "Automated client detected",
			Details:   details,
		}
	}

	result := &types.CheckResult{
		Allowed:   true,
		RiskScore: botScore * 0.8,
		Details:   details,
	}
	if botScore > 0.4 {
		result.ChallengeRequired = true
		result.ChallengeType = types.ChallengeCaptcha
		if botScore > 0.6 {
			result.ChallengeType = types.ChallengeAdvancedCaptcha
		}
	}
	return result
}

// inconsistent flags user-agent/header combinations no real client produces:
// a non-empty user agent that never sends Accept, or an Accept header paired
// with a user agent that does not look like a browser.
func inconsistent(ua string, headers map[string]string) bool {
	_, hasAccept := headers["accept"]
	browserLike := false
	for _, marker := range browserMarkers {
		if strings.Contains(ua, marker) {
			browserLike = true
			break
		}
	}
	if ua != "" && !hasAccept {
		return true
	}
	return hasAccept && !browserLike
}
