package types

import "time"

// ChallengeType identifies the secondary verification step imposed on a
// request instead of an outright block.
type ChallengeType string

const (
	ChallengeNone            ChallengeType = ""
	ChallengeCaptcha         ChallengeType = "captcha"
	ChallengeAdvancedCaptcha ChallengeType = "advanced_captcha"
	ChallengeMultiFactor     ChallengeType = "multi_factor"
)

var challengeRank = map[ChallengeType]int{
	ChallengeNone:            0,
	ChallengeCaptcha:         1,
	ChallengeAdvancedCaptcha: 2,
	ChallengeMultiFactor:     3,
}

// StrongerThan reports whether c outranks other. The pipeline escalates to
// the strongest challenge any detector requested.
func (c ChallengeType) StrongerThan(other ChallengeType) bool {
	return challengeRank[c] > challengeRank[other]
}

// RequestSignal is the normalized, immutable view of one inbound request.
// Header keys are lower-cased by the extractor.
type RequestSignal struct {
	IP          string            `json:"ip"`
	UserAgent   string            `json:"user_agent"`
	Headers     map[string]string `json:"headers"`
	Email       string            `json:"email,omitempty"`
	Endpoint    string            `json:"endpoint"`
	Method      string            `json:"method"`
	Fingerprint string            `json:"fingerprint,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// CheckResult is the outcome of a single detector evaluation.
type CheckResult struct {
	Allowed           bool          `json:"allowed"`
	RiskScore         float64       `json:"risk_score"`
	ChallengeRequired bool          `json:"challenge_required"`
	ChallengeType     ChallengeType `json:"challenge_type,omitempty"`
	Details           []string      `json:"details,omitempty"`
	Reason            string        `json:"reason,omitempty"`
}

// Decision is the final admission verdict for a request.
type Decision struct {
	Allowed           bool          `json:"allowed"`
	Reason            string        `json:"reason"`
	RiskScore         float64       `json:"risk_score"`
	ChallengeRequired bool          `json:"challenge_required"`
	ChallengeType     ChallengeType `json:"challenge_type,omitempty"`
	ChecksPassed      []string      `json:"checks_passed"`
	ChecksFailed      []string      `json:"checks_failed"`
	Timestamp         time.Time     `json:"timestamp"`
}
