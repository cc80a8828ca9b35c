package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

const (
	ServiceBuilder   = "builder"
	ServiceMemo      = "memo"
	ServiceDirectory = "directory"
)

// RegisterMetrics registers metrics for the specified services
func RegisterMetrics(services []string, logger *logrus.Logger) {
	// Always register Go and process metrics
	registerIfNotExists(collectors.NewGoCollector(), "go_collector", logger)
	registerIfNotExists(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}), "process_collector", logger)

	for _, service := range services {
		switch service {
		case ServiceBuilder:
			registerBuilderMetrics(logger)
		case ServiceMemo:
			registerMemoMetrics(logger)
		case ServiceDirectory:
			registerDirectoryMetrics(logger)
		default:
			logger.Warnf("Unknown service type for metrics registration: %s", service)
		}
	}
}

// registerIfNotExists registers a collector if it's not already registered
func registerIfNotExists(collector prometheus.Collector, name string, logger *logrus.Logger) {
	if err := prometheus.Register(collector); err != nil {
		var alreadyRegErr prometheus.AlreadyRegisteredError
		if errors.As(err, &alreadyRegErr) {
			logger.Debugf("%s already registered", name)
		} else {
			logger.Errorf("Failed to register %s: %v", name, err)
		}
	}
}

func registerBuilderMetrics(logger *logrus.Logger) {
	registerIfNotExists(builderBuildsTotal, "builder_builds_total", logger)
	registerIfNotExists(builderValidationFailuresTotal, "builder_validation_failures_total", logger)
	registerIfNotExists(builderSimulationFallbacksTotal, "builder_simulation_fallbacks_total", logger)
	registerIfNotExists(builderBuildDuration, "builder_build_duration", logger)
}

func registerMemoMetrics(logger *logrus.Logger) {
	registerIfNotExists(memoChecksTotal, "memo_checks_total", logger)
	registerIfNotExists(memoSupersededTotal, "memo_superseded_total", logger)
}

func registerDirectoryMetrics(logger *logrus.Logger) {
	registerIfNotExists(directoryFetchesTotal, "directory_fetches_total", logger)
	registerIfNotExists(directoryRecords, "directory_records", logger)
	registerIfNotExists(directoryLastRefreshTimestamp, "directory_last_refresh_timestamp", logger)
}
