package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache lookup results.
const (
	CacheHit     = "hit"
	CacheMiss    = "miss"
	CacheExpired = "expired"
	CacheCorrupt = "corrupt"
)

// Metrics holds all Prometheus metrics for the reference-data subsystem.
// Every method is nil-safe so components can run without metrics.
type Metrics struct {
	CacheLookups  *prometheus.CounterVec
	MediumErrors  *prometheus.CounterVec
	DatasetLoads  *prometheus.CounterVec
	FetchFailures *prometheus.CounterVec
	FetchLatency  *prometheus.HistogramVec

	PostalLookups       *prometheus.CounterVec
	PostalLookupLatency prometheus.Histogram
}

// New creates and registers all metrics on reg. Passing nil registers on the
// default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agenda_cache_lookups_total",
			Help: "Cache store lookups by result (hit, miss, expired, corrupt)",
		}, []string{"result"}),
		MediumErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agenda_cache_medium_errors_total",
			Help: "Storage medium failures swallowed by the cache store, by operation",
		}, []string{"op"}),
		DatasetLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agenda_dataset_loads_total",
			Help: "Dataset loads by dataset and the source that served them",
		}, []string{"dataset", "source"}),
		FetchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agenda_dataset_fetch_failures_total",
			Help: "Remote dataset fetch failures by dataset and category",
		}, []string{"dataset", "category"}),
		FetchLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agenda_dataset_fetch_duration_seconds",
			Help:    "Duration of remote dataset fetches",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"dataset"}),
		PostalLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agenda_postal_lookups_total",
			Help: "Postal code resolutions by outcome",
		}, []string{"outcome"}),
		PostalLookupLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "agenda_postal_lookup_duration_seconds",
			Help:    "Duration of remote postal code lookups",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// IncCacheLookup records one cache lookup result.
func (m *Metrics) IncCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

// IncMediumError records a swallowed medium failure.
func (m *Metrics) IncMediumError(op string) {
	if m != nil {
		m.MediumErrors.WithLabelValues(op).Inc()
	}
}

// IncDatasetLoad records which source served a dataset load.
func (m *Metrics) IncDatasetLoad(dataset, source string) {
	if m != nil {
		m.DatasetLoads.WithLabelValues(dataset, source).Inc()
	}
}

// IncFetchFailure records a failed remote fetch.
func (m *Metrics) IncFetchFailure(dataset, category string) {
	if m != nil {
		m.FetchFailures.WithLabelValues(dataset, category).Inc()
	}
}

// ObserveFetchLatency records the duration of a remote fetch.
func (m *Metrics) ObserveFetchLatency(dataset string, d time.Duration) {
	if m != nil {
		m.FetchLatency.WithLabelValues(dataset).Observe(d.Seconds())
	}
}

// IncPostalLookup records a postal resolution outcome.
func (m *Metrics) IncPostalLookup(outcome string) {
	if m != nil {
		m.PostalLookups.WithLabelValues(outcome).Inc()
	}
}

// ObservePostalLookupLatency records the duration of a remote postal lookup.
func (m *Metrics) ObservePostalLookupLatency(d time.Duration) {
	if m != nil {
		m.PostalLookupLatency.Observe(d.Seconds())
	}
}
