package common

const (
	FingerprintHeader      = "X-Fingerprint"
	SecurityDecisionHeader = "X-Security-Decision"
	SecurityScoreHeader    = "X-Security-Score"
	ChallengeTypeHeader    = "X-Challenge-Type"
)
