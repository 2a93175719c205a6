// Package metrics provides Prometheus metrics for the shotboard scorekeeper.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Score write paths, used as the "path" label.
const (
	PathSet = "set"
	PathCap = "cap"
)

// Manager manages all Prometheus metrics for the scorekeeper.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Scoring
	scoresCommitted *prometheus.CounterVec
	scoresRejected  *prometheus.CounterVec
	perfectShots    prometheus.Counter

	// Tournament lifecycle
	tournamentsStarted  prometheus.Counter
	tournamentsFinished prometheus.Counter
	participantsPerGame prometheus.Histogram

	// History and roster
	historyAppends   prometheus.Counter
	historyEvictions prometheus.Counter
	historyEntries   prometheus.Gauge
	rosterSize       prometheus.Gauge

	// Persistence
	storeErrors          *prometheus.CounterVec
	storeLatency         *prometheus.HistogramVec
	snapshotSaveFailures prometheus.Counter
	degraded             prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "shotboard",
		subsystem:        "core",
		histogramBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.scoresCommitted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "scores_committed_total",
		Help:        "Shot values written to the active sheet, by write path",
		ConstLabels: labels,
	}, []string{"path"})

	m.scoresRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "scores_rejected_total",
		Help:        "Shot writes that left the cell unchanged, by write path",
		ConstLabels: labels,
	}, []string{"path"})

	m.perfectShots = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "perfect_shots_total",
		Help:        "Committed shots that scored 10",
		ConstLabels: labels,
	})

	m.tournamentsStarted = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "tournaments_started_total",
		Help:        "Tournaments that entered the scoring phase",
		ConstLabels: labels,
	})

	m.tournamentsFinished = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "tournaments_finished_total",
		Help:        "Tournaments finished and recorded",
		ConstLabels: labels,
	})

	m.participantsPerGame = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "tournament_participants",
		Help:        "Participants per finished tournament",
		Buckets:     []float64{1, 2, 4, 8, 16, 32, 64},
		ConstLabels: labels,
	})

	m.historyAppends = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "history_appends_total",
		Help:        "Entries appended to tournament history",
		ConstLabels: labels,
	})

	m.historyEvictions = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "history_evictions_total",
		Help:        "History entries evicted to stay within capacity",
		ConstLabels: labels,
	})

	m.historyEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "history_entries",
		Help:        "Entries currently held in tournament history",
		ConstLabels: labels,
	})

	m.rosterSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "roster_participants",
		Help:        "Participants currently in the roster",
		ConstLabels: labels,
	})

	m.storeErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "store_errors_total",
		Help:        "Persistence failures by store and operation",
		ConstLabels: labels,
	}, []string{"store", "op"})

	m.storeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "store_latency_milliseconds",
		Help:        "Persistence operation latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"store", "op"})

	m.snapshotSaveFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "snapshot_save_failures_total",
		Help:        "Session snapshot writes that failed and were skipped",
		ConstLabels: labels,
	})

	m.degraded = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "degraded",
		Help:        "1 when the service runs without durable storage",
		ConstLabels: labels,
	})
}

// RecordScore counts one score write on path.
func RecordScore(path string, committed, perfect bool) {
	if !committed {
		globalManager.scoresRejected.WithLabelValues(path).Inc()
		return
	}
	globalManager.scoresCommitted.WithLabelValues(path).Inc()
	if perfect {
		globalManager.perfectShots.Inc()
	}
}

// RecordTournamentStarted increments the started tournaments counter.
func RecordTournamentStarted() {
	globalManager.tournamentsStarted.Inc()
}

// RecordTournamentFinished counts a finished tournament and its field size.
func RecordTournamentFinished(participants int) {
	globalManager.tournamentsFinished.Inc()
	globalManager.participantsPerGame.Observe(float64(participants))
}

// RecordHistoryAppend counts an append and the entries it evicted.
func RecordHistoryAppend(evicted int) {
	globalManager.historyAppends.Inc()
	if evicted > 0 {
		globalManager.historyEvictions.Add(float64(evicted))
	}
}

// UpdateHistoryEntries sets the number of stored history entries.
func UpdateHistoryEntries(count int) {
	globalManager.historyEntries.Set(float64(count))
}

// UpdateRosterSize sets the number of roster participants.
func UpdateRosterSize(count int) {
	globalManager.rosterSize.Set(float64(count))
}

// RecordStoreError counts a failed persistence operation.
func RecordStoreError(store, op string) {
	globalManager.storeErrors.WithLabelValues(store, op).Inc()
}

// ObserveStoreOp records how long a persistence operation took since start.
func ObserveStoreOp(store, op string, start time.Time) {
	globalManager.storeLatency.WithLabelValues(store, op).Observe(float64(time.Since(start).Microseconds()) / 1000)
}

// RecordSnapshotSaveFailure counts a skipped session snapshot.
func RecordSnapshotSaveFailure() {
	globalManager.snapshotSaveFailures.Inc()
}

// SetDegraded flags whether the service fell back to in-memory storage.
func SetDegraded(on bool) {
	if on {
		globalManager.degraded.Set(1)
		return
	}
	globalManager.degraded.Set(0)
}

// Configure replaces the global manager with one built from opts on a fresh
// registry. Call it before anything is recorded; earlier values are dropped.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(registry))...)
	customRegistry = registry
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile dumps the custom registry to path in the text exposition
// format, for collection by a node exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}
