package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Placemark and export metrics.
var (
	PlacemarksLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "placemarks_loaded",
			Help:      "Number of placemarks in the current source document",
		},
	)

	QueryMatches = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_matches",
			Help:      "Number of records matched per query",
			Buckets:   []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000},
		},
	)

	ValidationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Rejected filter values by reason",
		},
		[]string{"reason"},
	)

	ExportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Rendered exports by format and outcome",
		},
		[]string{"format", "status"}, // "ok" / "error"
	)

	SourceReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_reloads_total",
			Help:      "Source document reloads by outcome",
		},
		[]string{"status"},
	)
)

var registerDomainOnce sync.Once

// RegisterDomainMetrics registers placemark and export metrics with the
// default registry. Must be called from main; safe to call more than once.
func RegisterDomainMetrics() {
	registerDomainOnce.Do(func() {
		prometheus.MustRegister(
			PlacemarksLoaded,
			QueryMatches,
			ValidationFailuresTotal,
			ExportsTotal,
			SourceReloadsTotal,
		)
	})
}

// Status returns the outcome label for err.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
