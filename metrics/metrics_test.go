package metrics

import (
	"bytes"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveFit(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewWithRegistry(registry)

	m.ObserveFit(2*time.Second, 12, 3)
	m.ObserveFit(time.Second, 7, 2)
	m.FitFailed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FitsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FitFailures))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.RulesExtracted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RulesSelected))
	assert.Equal(t, 1, testutil.CollectAndCount(m.FitDuration))
}

func TestObserveScores(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())
	m.ObserveScores(10, 2)
	m.ObserveScores(5, 0)
	assert.Equal(t, 15.0, testutil.ToFloat64(m.RecordsScoredTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OutliersTotal))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveFit(time.Second, 1, 1)
		m.FitFailed()
		m.ObserveScores(1, 1)
	})
}

func TestDump(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewWithRegistry(registry)
	m.ObserveScores(3, 1)

	buf := &bytes.Buffer{}
	require.NoError(t, Dump(buf, registry))
	assert.Contains(t, buf.String(), "records_scored_total 3")
	assert.Contains(t, buf.String(), "outliers_total 1")
	assert.Contains(t, buf.String(), "# TYPE fit_duration_seconds histogram")
}
