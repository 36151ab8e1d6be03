package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for chart runs.
type Metrics struct {
	RunsTotal   *prometheus.CounterVec // labels: outcome={success,error}
	RunDuration prometheus.Histogram
	RunActive   prometheus.Gauge

	ProfilePoints   prometheus.Histogram
	StationsMissing prometheus.Gauge
	FetchErrors     *prometheus.CounterVec // labels: source={rass,madis}
}

// NewMetrics creates and registers all run metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rasstastic",
			Name:      "runs_total",
			Help:      "Total chart generation runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rasstastic",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete locate-fetch-render cycle.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		}),
		RunActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rasstastic",
			Name:      "run_active",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		ProfilePoints: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rasstastic",
			Name:      "profile_grid_points",
			Help:      "Number of resampled grid points per parsed profile.",
			Buckets:   []float64{2, 5, 10, 20, 30, 40, 60, 80},
		}),
		StationsMissing: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rasstastic",
			Name:      "stations_missing",
			Help:      "Stations without a usable temperature in the last run.",
		}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rasstastic",
			Name:      "fetch_errors_total",
			Help:      "Upstream fetch failures by data source.",
		}, []string{"source"}),
	}

	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.RunActive,
		m.ProfilePoints,
		m.StationsMissing,
		m.FetchErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RunsTotal:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "rasstastic", Name: "runs_total"}, []string{"outcome"}),
		RunDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "rasstastic", Name: "run_duration_seconds"}),
		RunActive:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "rasstastic", Name: "run_active"}),
		ProfilePoints:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "rasstastic", Name: "profile_grid_points"}),
		StationsMissing: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "rasstastic", Name: "stations_missing"}),
		FetchErrors:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "rasstastic", Name: "fetch_errors_total"}, []string{"source"}),
	}
}
