package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	memoChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stellar",
			Subsystem: "memo",
			Name:      "checks_total",
			Help:      "Total number of memo policy decisions",
		},
		[]string{"source", "required"}, // see Source* constants
	)

	memoSupersededTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "stellar",
			Subsystem: "memo",
			Name:      "superseded_total",
			Help:      "Total number of memo checks discarded because a newer one started",
		},
	)
)

// Decision sources for memo policy checks
const (
	SourceGate          = "gate"
	SourceMemo          = "memo"
	SourceMuxed         = "muxed"
	SourceNoDestination = "no_destination"
	SourceDirectory     = "directory"
	SourcePreflight     = "preflight"
	SourceFailClosed    = "fail_closed"
)

// MemoMetrics provides methods to update memo policy metrics
type MemoMetrics struct{}

func NewMemoMetrics() *MemoMetrics {
	return &MemoMetrics{}
}

func (mm *MemoMetrics) RecordCheck(source string, required bool) {
	memoChecksTotal.WithLabelValues(source, strconv.FormatBool(required)).Inc()
}

func (mm *MemoMetrics) RecordSuperseded() {
	memoSupersededTotal.Inc()
}
