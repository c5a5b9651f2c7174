package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the evaluation engine: live sessions,
// the autosave cycle, finalization outcomes and CAPA derivation.
type Metrics struct {
	SessionsOpen         prometheus.Gauge
	SessionsOpened       prometheus.Counter
	HydrationIgnored     prometheus.Counter
	AutosaveTotal        *prometheus.CounterVec
	AutosaveSkipped      prometheus.Counter
	SaveDuration         prometheus.Histogram
	FinalizeTotal        *prometheus.CounterVec
	CatalogParseErrors   prometheus.Counter
	CatalogCacheLookups  *prometheus.CounterVec
	CapaDraftsGenerated  prometheus.Counter
	CapaCommitted        *prometheus.CounterVec
	EventPublishFailures prometheus.Counter
	CatalogCacheBreaker  prometheus.Gauge
}

// New registers all evaluation metrics on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SessionsOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "roundwise_sessions_open",
			Help: "Current number of live evaluation sessions",
		}),
		SessionsOpened: f.NewCounter(prometheus.CounterOpts{
			Name: "roundwise_sessions_opened_total",
			Help: "Total number of evaluation sessions opened",
		}),
		HydrationIgnored: f.NewCounter(prometheus.CounterOpts{
			Name: "roundwise_hydration_ignored_records_total",
			Help: "Prior draft records ignored because their item left the round",
		}),
		AutosaveTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "roundwise_autosave_total",
			Help: "Draft saves by result",
		}, []string{"result"}),
		AutosaveSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "roundwise_autosave_skipped_total",
			Help: "Autosave ticks skipped because a save was already in flight",
		}),
		SaveDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "roundwise_draft_save_duration_seconds",
			Help:    "Duration of draft persistence calls",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		FinalizeTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "roundwise_finalize_total",
			Help: "Finalize attempts by outcome",
		}, []string{"outcome"}),
		CatalogParseErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "roundwise_catalog_parse_errors_total",
			Help: "Round item lists that could not be parsed and degraded to empty",
		}),
		CatalogCacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "roundwise_catalog_cache_lookups_total",
			Help: "Catalog cache lookups by kind and result",
		}, []string{"kind", "result"}),
		CapaDraftsGenerated: f.NewCounter(prometheus.CounterOpts{
			Name: "roundwise_capa_drafts_generated_total",
			Help: "CAPA drafts derived from non-compliant items",
		}),
		CapaCommitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "roundwise_capa_committed_total",
			Help: "CAPA drafts handed to the committer by outcome",
		}, []string{"outcome"}),
		EventPublishFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "roundwise_event_publish_failures_total",
			Help: "Domain events that could not be published to the broker",
		}),
		CatalogCacheBreaker: f.NewGauge(prometheus.GaugeOpts{
			Name: "roundwise_catalog_cache_circuit_open",
			Help: "Catalog cache circuit breaker state (0=closed, 1=open)",
		}),
	}
}

func (m *Metrics) IncSessionsOpened() {
	m.SessionsOpened.Inc()
	m.SessionsOpen.Inc()
}

func (m *Metrics) DecSessionsOpen() {
	m.SessionsOpen.Dec()
}

func (m *Metrics) AddHydrationIgnored(n int) {
	m.HydrationIgnored.Add(float64(n))
}

// ObserveSave records a draft save outcome and its duration.
// Call with time.Now() taken before the save.
func (m *Metrics) ObserveSave(start time.Time, err error) {
	m.SaveDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		m.AutosaveTotal.WithLabelValues("failure").Inc()
		return
	}
	m.AutosaveTotal.WithLabelValues("success").Inc()
}

func (m *Metrics) IncAutosaveSkipped() {
	m.AutosaveSkipped.Inc()
}

func (m *Metrics) IncFinalize(outcome string) {
	m.FinalizeTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncCatalogParseErrors() {
	m.CatalogParseErrors.Inc()
}

func (m *Metrics) RecordCacheLookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CatalogCacheLookups.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) AddCapaDraftsGenerated(n int) {
	m.CapaDraftsGenerated.Add(float64(n))
}

func (m *Metrics) IncCapaCommitted(created bool) {
	if created {
		m.CapaCommitted.WithLabelValues("created").Inc()
		return
	}
	m.CapaCommitted.WithLabelValues("replayed").Inc()
}

func (m *Metrics) IncEventPublishFailures() {
	m.EventPublishFailures.Inc()
}

func (m *Metrics) SetCatalogCacheBreaker(open bool) {
	if open {
		m.CatalogCacheBreaker.Set(1)
	} else {
		m.CatalogCacheBreaker.Set(0)
	}
}
