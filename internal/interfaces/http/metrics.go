package http

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsRegistry holds all Prometheus metrics for the pipeline.
type MetricsRegistry struct {
	// Stage metrics
	StageDuration *prometheus.HistogramVec
	StageRows     *prometheus.GaugeVec

	// Event matching metrics
	EventsMatched   *prometheus.CounterVec
	EventsDiscarded *prometheus.CounterVec

	// Price index provider metrics
	PriceIndexFetches *prometheus.CounterVec
	CacheHits         *prometheus.CounterVec
	CacheMisses       *prometheus.CounterVec

	// Run metrics
	RunsTotal   *prometheus.CounterVec
	ActiveRuns  prometheus.Gauge
	RowsEmitted prometheus.Counter
	RowsDropped *prometheus.CounterVec
	ScoredTotal prometheus.Counter
	Churners    prometheus.Counter
}

// NewMetricsRegistry creates the full metric set.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sivap_stage_duration_seconds",
				Help:    "Duration of each pipeline stage in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 15.0, 60.0, 300.0},
			},
			[]string{"stage", "result"},
		),
		StageRows: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sivap_stage_rows",
				Help: "Rows emitted by each pipeline stage in the last run",
			},
			[]string{"stage"},
		),
		EventsMatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sivap_events_matched_total",
				Help: "Events assigned to a contract, by event kind",
			},
			[]string{"kind"},
		),
		EventsDiscarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sivap_events_discarded_total",
				Help: "Events matching no contract, by event kind",
			},
			[]string{"kind"},
		),
		PriceIndexFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sivap_priceindex_fetches_total",
				Help: "Price index fetch attempts by outcome",
			},
			[]string{"outcome"},
		),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sivap_cache_hits_total",
				Help: "Cache hits by cache type",
			},
			[]string{"cache_type"},
		),
		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sivap_cache_misses_total",
				Help: "Cache misses by cache type",
			},
			[]string{"cache_type"},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sivap_runs_total",
				Help: "Pipeline runs by outcome",
			},
			[]string{"outcome"},
		),
		ActiveRuns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sivap_active_runs",
				Help: "Pipeline runs currently in progress",
			},
		),
		RowsEmitted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sivap_feature_rows_emitted_total",
				Help: "Feature rows written to the output table",
			},
		),
		RowsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sivap_rows_dropped_total",
				Help: "Rows dropped, by reason",
			},
			[]string{"reason"},
		),
		ScoredTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sivap_contracts_scored_total",
				Help: "Pending contracts scored",
			},
		),
		Churners: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sivap_predicted_churners_total",
				Help: "Pending contracts classified as churners",
			},
		),
	}
}

// Register adds every metric to the given registerer.
func (m *MetricsRegistry) Register(reg prometheus.Registerer) {
	reg.MustRegister(
		m.StageDuration, m.StageRows,
		m.EventsMatched, m.EventsDiscarded,
		m.PriceIndexFetches, m.CacheHits, m.CacheMisses,
		m.RunsTotal, m.ActiveRuns, m.RowsEmitted, m.RowsDropped,
		m.ScoredTotal, m.Churners,
	)
}

var defaultRegistry *MetricsRegistry

// InitializeMetrics registers the pipeline metrics on the default Prometheus
// registry. Call once from main.
func InitializeMetrics() *MetricsRegistry {
	if defaultRegistry == nil {
		defaultRegistry = NewMetricsRegistry()
		defaultRegistry.Register(prometheus.DefaultRegisterer)
	}
	return defaultRegistry
}

// Metrics returns the process-wide registry, initializing it if needed.
func Metrics() *MetricsRegistry {
	return InitializeMetrics()
}
