// Package telemetry defines the Prometheus collectors for indexing, watching
// and searching, plus an in-memory log of recent queries.
//
// All methods are safe on a nil *Metrics so library callers that do not care
// about telemetry can leave it unset.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "textindex"

// Search outcome labels.
const (
	ResultHit   = "hit"
	ResultEmpty = "empty"
	ResultError = "error"
)

// Metrics holds all Prometheus collectors for one textindex instance.
// Each instance owns its registry, so several indexers can coexist in one
// process (and in tests) without duplicate-registration panics.
type Metrics struct {
	registry *prometheus.Registry
	queries  *QueryLog

	FilesIndexed           prometheus.Counter
	IndexFailures          *prometheus.CounterVec
	FilesRemoved           prometheus.Counter
	IndexedWords           prometheus.Gauge
	IndexedFiles           prometheus.Gauge
	WatchEvents            *prometheus.CounterVec
	WatchOverflows         prometheus.Counter
	WatchRegistrationFails prometheus.Counter
	WatchedDirs            prometheus.Gauge
	SearchesTotal          *prometheus.CounterVec
	SearchLatency          prometheus.Histogram
	SearchCandidates       prometheus.Histogram
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		queries:  NewQueryLog(DefaultQueryLogConfig()),
		FilesIndexed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_indexed_total",
				Help:      "Total number of files successfully indexed or re-indexed.",
			},
		),
		IndexFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "index_failures_total",
				Help:      "Total indexing failures by error category.",
			},
			[]string{"category"},
		),
		FilesRemoved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remove_requests_total",
				Help:      "Total number of remove-from-index requests.",
			},
		),
		IndexedWords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "indexed_words",
				Help:      "Number of distinct words in the index.",
			},
		),
		IndexedFiles: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "indexed_files",
				Help:      "Number of files currently owned by the index.",
			},
		),
		WatchEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "watch_events_total",
				Help:      "Total filesystem change events processed by operation.",
			},
			[]string{"op"},
		),
		WatchOverflows: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "watch_overflows_total",
				Help:      "Total overflow signals from the notification source.",
			},
		),
		WatchRegistrationFails: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "watch_registration_failures_total",
				Help:      "Total directories that could not be registered for notification.",
			},
		),
		WatchedDirs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "watched_directories",
				Help:      "Number of directories currently registered for notification.",
			},
		),
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "searches_total",
				Help:      "Total positional searches by outcome (hit, empty, error).",
			},
			[]string{"result"},
		),
		SearchLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_latency_seconds",
				Help:      "Positional search latency in seconds.",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
		),
		SearchCandidates: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_candidates",
				Help:      "Number of candidate files scanned per search.",
				Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 500},
			},
		),
	}

	m.registry.MustRegister(
		m.FilesIndexed,
		m.IndexFailures,
		m.FilesRemoved,
		m.IndexedWords,
		m.IndexedFiles,
		m.WatchEvents,
		m.WatchOverflows,
		m.WatchRegistrationFails,
		m.WatchedDirs,
		m.SearchesTotal,
		m.SearchLatency,
		m.SearchCandidates,
	)

	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Queries returns the in-memory query log.
func (m *Metrics) Queries() *QueryLog {
	if m == nil {
		return nil
	}
	return m.queries
}

// Handler returns the scrape handler for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// FileIndexed records one successfully indexed file.
func (m *Metrics) FileIndexed() {
	if m == nil {
		return
	}
	m.FilesIndexed.Inc()
}

// IndexFailed records one failed file, labelled by error category.
func (m *Metrics) IndexFailed(category string) {
	if m == nil {
		return
	}
	if category == "" {
		category = "UNKNOWN"
	}
	m.IndexFailures.WithLabelValues(category).Inc()
}

// FileRemoved records one remove request.
func (m *Metrics) FileRemoved() {
	if m == nil {
		return
	}
	m.FilesRemoved.Inc()
}

// SetIndexSize publishes the current index size.
func (m *Metrics) SetIndexSize(words, files int) {
	if m == nil {
		return
	}
	m.IndexedWords.Set(float64(words))
	m.IndexedFiles.Set(float64(files))
}

// WatchEvent records one processed change event.
func (m *Metrics) WatchEvent(op string) {
	if m == nil {
		return
	}
	m.WatchEvents.WithLabelValues(op).Inc()
}

// WatchOverflow records one overflow signal.
func (m *Metrics) WatchOverflow() {
	if m == nil {
		return
	}
	m.WatchOverflows.Inc()
}

// WatchRegistrationFailed records one directory that could not be registered.
func (m *Metrics) WatchRegistrationFailed() {
	if m == nil {
		return
	}
	m.WatchRegistrationFails.Inc()
}

// SetWatchedDirs publishes the number of registered directories.
func (m *Metrics) SetWatchedDirs(n int) {
	if m == nil {
		return
	}
	m.WatchedDirs.Set(float64(n))
}

// ObserveSearch records one positional search.
// A nil err with zero matching files counts as an empty result.
func (m *Metrics) ObserveSearch(pattern string, candidates, matches int, latency time.Duration, err error) {
	if m == nil {
		return
	}

	result := ResultHit
	switch {
	case err != nil:
		result = ResultError
	case matches == 0:
		result = ResultEmpty
	}

	m.SearchesTotal.WithLabelValues(result).Inc()
	m.SearchLatency.Observe(latency.Seconds())
	if err == nil {
		m.SearchCandidates.Observe(float64(candidates))
		m.queries.Record(pattern, matches)
	}
}
