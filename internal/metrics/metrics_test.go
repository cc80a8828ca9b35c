package metrics

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestRegisterMetrics_Idempotent(t *testing.T) {
	logger := quietLogger()
	services := []string{ServiceBuilder, ServiceMemo, ServiceDirectory, "unknown"}

	assert.NotPanics(t, func() {
		RegisterMetrics(services, logger)
		RegisterMetrics(services, logger)
	})
}

func TestBuilderMetrics(t *testing.T) {
	bm := NewBuilderMetrics()

	before := testutil.ToFloat64(builderBuildsTotal.WithLabelValues("contract", OutcomeSuccess))
	bm.RecordBuild("contract", true, 10*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(builderBuildsTotal.WithLabelValues("contract", OutcomeSuccess)))

	before = testutil.ToFloat64(builderValidationFailuresTotal.WithLabelValues("fee"))
	bm.RecordValidationFailure("fee")
	assert.Equal(t, before+1, testutil.ToFloat64(builderValidationFailuresTotal.WithLabelValues("fee")))

	before = testutil.ToFloat64(builderSimulationFallbacksTotal)
	bm.RecordSimulationFallback()
	assert.Equal(t, before+1, testutil.ToFloat64(builderSimulationFallbacksTotal))
}

func TestMemoMetrics(t *testing.T) {
	mm := NewMemoMetrics()

	before := testutil.ToFloat64(memoChecksTotal.WithLabelValues(SourceDirectory, "true"))
	mm.RecordCheck(SourceDirectory, true)
	assert.Equal(t, before+1, testutil.ToFloat64(memoChecksTotal.WithLabelValues(SourceDirectory, "true")))

	before = testutil.ToFloat64(memoSupersededTotal)
	mm.RecordSuperseded()
	assert.Equal(t, before+1, testutil.ToFloat64(memoSupersededTotal))
}

func TestDirectoryMetrics(t *testing.T) {
	dm := NewDirectoryMetrics()
	at := time.Unix(1700000000, 0)

	dm.RecordRefresh(42, at)
	assert.Equal(t, float64(42), testutil.ToFloat64(directoryRecords))
	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(directoryLastRefreshTimestamp))

	before := testutil.ToFloat64(directoryFetchesTotal.WithLabelValues(FetchError))
	dm.RecordFetch(FetchError)
	assert.Equal(t, before+1, testutil.ToFloat64(directoryFetchesTotal.WithLabelValues(FetchError)))
}

func TestStartMetricsServer_Disabled(t *testing.T) {
	s := StartMetricsServer(Config{Enabled: false}, []string{ServiceBuilder}, quietLogger())
	assert.Nil(t, s)
	assert.NoError(t, s.Stop(context.Background()))
}
