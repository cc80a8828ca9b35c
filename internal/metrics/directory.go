package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	directoryFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stellar",
			Subsystem: "directory",
			Name:      "fetches_total",
			Help:      "Total number of memo-required directory lookups",
		},
		[]string{"outcome"}, // hit, refreshed, error
	)

	directoryRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "stellar",
			Subsystem: "directory",
			Name:      "records",
			Help:      "Number of records in the last fetched directory",
		},
	)

	directoryLastRefreshTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "stellar",
			Subsystem: "directory",
			Name:      "last_refresh_timestamp",
			Help:      "Timestamp of the last successful directory refresh",
		},
	)
)

const (
	FetchHit       = "hit"
	FetchRefreshed = "refreshed"
	FetchError     = "error"
)

// DirectoryMetrics provides methods to update directory cache metrics
type DirectoryMetrics struct{}

func NewDirectoryMetrics() *DirectoryMetrics {
	return &DirectoryMetrics{}
}

func (dm *DirectoryMetrics) RecordFetch(outcome string) {
	directoryFetchesTotal.WithLabelValues(outcome).Inc()
}

// RecordRefresh records a successful refetch from the remote source
func (dm *DirectoryMetrics) RecordRefresh(records int, at time.Time) {
	directoryFetchesTotal.WithLabelValues(FetchRefreshed).Inc()
	directoryRecords.Set(float64(records))
	directoryLastRefreshTimestamp.Set(float64(at.Unix()))
}
