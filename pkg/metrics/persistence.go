package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Hydration outcomes recorded by ObserveHydration.
const (
	HydrationLoaded = "loaded"
	HydrationEmpty  = "empty"
	HydrationFailed = "failed"
)

// PersistenceMetrics records snapshot writes and hydration results per storage key.
type PersistenceMetrics struct {
	writeDuration *prometheus.HistogramVec
	writeSuccess  *prometheus.CounterVec
	writeFailure  *prometheus.CounterVec
	hydrations    *prometheus.CounterVec
	dropped       *prometheus.CounterVec
}

// NewPersistenceMetrics registers the snapshot metrics on the provided registerer.
func NewPersistenceMetrics(reg prometheus.Registerer) *PersistenceMetrics {
	if reg == nil {
		return &PersistenceMetrics{}
	}
	writeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "snapshot_write_duration_seconds",
		Help:    "Duration of snapshot writes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"key"})
	writeSuccess := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "snapshot_write_success",
		Help: "Snapshot writes that reached the gateway.",
	}, []string{"key"})
	writeFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "snapshot_write_failure",
		Help: "Snapshot writes that failed and were dropped.",
	}, []string{"key"})
	hydrations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "snapshot_hydrations",
		Help: "Store hydrations by outcome.",
	}, []string{"key", "outcome"})
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "snapshot_dropped_entries",
		Help: "Persisted entries discarded as malformed during hydration.",
	}, []string{"key"})
	reg.MustRegister(writeDuration, writeSuccess, writeFailure, hydrations, dropped)
	return &PersistenceMetrics{
		writeDuration: writeDuration,
		writeSuccess:  writeSuccess,
		writeFailure:  writeFailure,
		hydrations:    hydrations,
		dropped:       dropped,
	}
}

// ObserveWrite records one snapshot write and its outcome.
func (m *PersistenceMetrics) ObserveWrite(key string, duration time.Duration, err error) {
	if m == nil || m.writeDuration == nil {
		return
	}
	key = normalizeLabel(key)
	m.writeDuration.WithLabelValues(key).Observe(duration.Seconds())
	if err != nil {
		m.writeFailure.WithLabelValues(key).Inc()
		return
	}
	m.writeSuccess.WithLabelValues(key).Inc()
}

func (m *PersistenceMetrics) ObserveHydration(key, outcome string) {
	if m == nil || m.hydrations == nil {
		return
	}
	m.hydrations.WithLabelValues(normalizeLabel(key), normalizeLabel(outcome)).Inc()
}

func (m *PersistenceMetrics) AddDropped(key string, n int) {
	if m == nil || m.dropped == nil || n <= 0 {
		return
	}
	m.dropped.WithLabelValues(normalizeLabel(key)).Add(float64(n))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
