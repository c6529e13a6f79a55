package common

type contextKey string

const (
	TraceIdKey         contextKey = "trace_id"
	SignalContextKey   contextKey = "request_signal"
	DecisionContextKey contextKey = "security_decision"
)
