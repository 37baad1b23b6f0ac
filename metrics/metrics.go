// Package metrics provides Prometheus metrics collection for rule fitting
// and scoring.
//
// Every method of Metrics can be called on a nil *Metrics, in which case
// nothing is recorded.
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Metrics holds the Prometheus metrics of a model.
type Metrics struct {
	FitsTotal          prometheus.Counter   // Total number of successful fits
	FitFailures        prometheus.Counter   // Total number of failed fits
	FitDuration        prometheus.Histogram // Duration of fits
	RulesExtracted     prometheus.Gauge     // Rules extracted by the last fit
	RulesSelected      prometheus.Gauge     // Rules used for scoring after the last fit
	RecordsScoredTotal prometheus.Counter   // Total number of scored records
	OutliersTotal      prometheus.Counter   // Total number of records labelled as outliers
}

// New creates and registers the metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates the metrics with a custom registry, so that
// several models, or tests, do not collide on the default one.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		FitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "fits_total",
			Help: "Total number of successful fits",
		}),
		FitFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "fit_failures_total",
			Help: "Total number of failed fits",
		}),
		FitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fit_duration_seconds",
			Help:    "Duration of fits in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		RulesExtracted: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rules_extracted",
			Help: "Number of rules extracted from the trees by the last fit",
		}),
		RulesSelected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rules_selected",
			Help: "Number of rules used for scoring after the last fit",
		}),
		RecordsScoredTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "records_scored_total",
			Help: "Total number of scored records",
		}),
		OutliersTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "outliers_total",
			Help: "Total number of records labelled as outliers",
		}),
	}
}

// ObserveFit records a successful fit that took the given duration,
// extracted the given number of rules and selected the given number
// of them for scoring.
func (m *Metrics) ObserveFit(d time.Duration, extracted, selected int) {
	if m == nil {
		return
	}
	m.FitsTotal.Inc()
	m.FitDuration.Observe(d.Seconds())
	m.RulesExtracted.Set(float64(extracted))
	m.RulesSelected.Set(float64(selected))
}

// FitFailed records a failed fit.
func (m *Metrics) FitFailed() {
	if m == nil {
		return
	}
	m.FitFailures.Inc()
}

// ObserveScores records the given number of scored records,
// of which outliers were labelled as outliers.
func (m *Metrics) ObserveScores(records, outliers int) {
	if m == nil {
		return
	}
	m.RecordsScoredTotal.Add(float64(records))
	m.OutliersTotal.Add(float64(outliers))
}

// Dump writes the metrics gathered by the given gatherer onto the
// given writer in the Prometheus text exposition format.
func Dump(w io.Writer, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %v", err)
	}
	for _, f := range families {
		_, err = expfmt.MetricFamilyToText(w, f)
		if err != nil {
			return fmt.Errorf("writing metric %s: %v", f.GetName(), err)
		}
	}
	return nil
}
