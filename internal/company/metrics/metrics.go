package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for company lookups and writes.
type Metrics struct {
	// Successful lookups by answering tier
	Lookups *prometheus.CounterVec

	// Failed lookups by reason: invalid, not_found, upstream, store
	LookupFailures *prometheus.CounterVec

	// Cache hits and misses by backend
	CacheResults *prometheus.CounterVec

	RegistryLatency *prometheus.HistogramVec

	// Create, update and delete operations
	Writes *prometheus.CounterVec
}

// New creates a new Metrics instance with all company metrics registered.
func New() *Metrics {
	return &Metrics{
		Lookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cadastro_company_lookups_total",
			Help: "Company lookups answered, by tier",
		}, []string{"source"}),

		LookupFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cadastro_company_lookup_failures_total",
			Help: "Company lookups that ended in an error, by reason",
		}, []string{"reason"}),

		CacheResults: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cadastro_company_cache_results_total",
			Help: "Company cache reads by backend and result",
		}, []string{"backend", "result"}),

		RegistryLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cadastro_registry_request_duration_seconds",
			Help:    "Duration of external registry requests by outcome",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"outcome"}),

		Writes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cadastro_company_writes_total",
			Help: "Company write operations by kind",
		}, []string{"op"}),
	}
}

func (m *Metrics) IncrementLookup(source string) {
	if m != nil {
		m.Lookups.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) IncrementLookupFailure(reason string) {
	if m != nil {
		m.LookupFailures.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) RecordCacheHit(backend string) {
	if m != nil {
		m.CacheResults.WithLabelValues(backend, "hit").Inc()
	}
}

func (m *Metrics) RecordCacheMiss(backend string) {
	if m != nil {
		m.CacheResults.WithLabelValues(backend, "miss").Inc()
	}
}

// ObserveRegistryLatency records one registry round trip.
func (m *Metrics) ObserveRegistryLatency(outcome string, d time.Duration) {
	if m != nil {
		m.RegistryLatency.WithLabelValues(outcome).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementWrite(op string) {
	if m != nil {
		m.Writes.WithLabelValues(op).Inc()
	}
}
