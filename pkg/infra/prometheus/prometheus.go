package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWith(nil, registry)

var (
	riskBuckets = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}

	DecisionsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_decisions_total",
			Help: "Total number of admission decisions by outcome",
		},
		[]string{"outcome"}, // allowed, denied, challenged
	)

	RiskScore = promauto.With(registerer).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vigil_risk_score",
			Help:    "Distribution of final decision risk scores",
			Buckets: riskBuckets,
		},
	)

	DetectorDenials = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_detector_denials_total",
			Help: "Denials attributed to individual detectors",
		},
		[]string{"detector"},
	)

	DecisionDuration = promauto.With(registerer).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vigil_decision_duration_seconds",
			Help:    "Time spent producing an admission decision",
			Buckets: prometheus.DefBuckets,
		},
	)

	StoreUnavailable = promauto.With(registerer).NewGauge(
		prometheus.GaugeOpts{
			Name: "vigil_threat_store_unavailable",
			Help: "1 when the threat store circuit breaker is open",
		},
	)
)

func Initialize() {
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
}
