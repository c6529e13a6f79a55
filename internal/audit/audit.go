package audit

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Entry is one audit record per admission decision.
type Entry struct {
	IP        string
	Email     string
	Endpoint  string
	Score     float64
	Allowed   bool
	Reason    string
	TraceID   string
	Timestamp time.Time
}

//go:generate mockery --name=Sink --dir=. --output=../../mocks --outpkg=mocks --case=underscore --filename=audit_sink_mock.go --structname=AuditSink

// Sink receives audit entries. Implementations must not block the hot path.
type Sink interface {
	Record(ctx context.Context, entry Entry)
}

type logSink struct {
	logger *logrus.Logger
}

// NewLogSink writes audit entries as structured log lines.
func NewLogSink(logger *logrus.Logger) Sink {
	return &logSink{logger: logger}
}

func (s *logSink) Record(_ context.Context, entry Entry) {
	s.logger.WithFields(logrus.Fields{
		"ip":       entry.IP,
		"email":    entry.Email,
		"endpoint": entry.Endpoint,
		"score":    entry.Score,
		"allowed":  entry.Allowed,
		"reason":   entry.Reason,
		"trace_id": entry.TraceID,
	}).Info("admission decision")
}
