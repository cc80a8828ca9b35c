package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	builderBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stellar",
			Subsystem: "builder",
			Name:      "builds_total",
			Help:      "Total number of transaction builds",
		},
		[]string{"path", "outcome"}, // classic/contract, success/error
	)

	builderValidationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stellar",
			Subsystem: "builder",
			Name:      "validation_failures_total",
			Help:      "Total number of intents rejected before building",
		},
		[]string{"check"},
	)

	// Prepare calls that failed and left the envelope unprepared
	builderSimulationFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "stellar",
			Subsystem: "builder",
			Name:      "simulation_fallbacks_total",
			Help:      "Total number of contract envelopes returned without preparation",
		},
	)

	builderBuildDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stellar",
			Subsystem: "builder",
			Name:      "build_duration_seconds",
			Help:      "Time taken to build a transaction envelope",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path"},
	)
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// BuilderMetrics provides methods to update transaction builder metrics
type BuilderMetrics struct{}

func NewBuilderMetrics() *BuilderMetrics {
	return &BuilderMetrics{}
}

// RecordBuild records a finished build on the given path
func (bm *BuilderMetrics) RecordBuild(path string, success bool, duration time.Duration) {
	outcome := OutcomeSuccess
	if !success {
		outcome = OutcomeError
	}
	builderBuildsTotal.WithLabelValues(path, outcome).Inc()
	builderBuildDuration.WithLabelValues(path).Observe(duration.Seconds())
}

func (bm *BuilderMetrics) RecordValidationFailure(check string) {
	builderValidationFailuresTotal.WithLabelValues(check).Inc()
}

func (bm *BuilderMetrics) RecordSimulationFallback() {
	builderSimulationFallbacksTotal.Inc()
}
