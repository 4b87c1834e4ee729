// Package metrics exposes job and collection activity via
// prometheus/client_golang (§6 "job/queue metrics"), with a collector set
// shaped directly around internal/collection.Summary and
// internal/jobs.Registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the counters and gauges every long-running job updates.
// A nil *Metrics is safe to call methods on; they become no-ops, so
// callers that don't care about metrics can leave the field unset.
type Metrics struct {
	capturesCreated  *prometheus.CounterVec
	devicesCollected *prometheus.CounterVec
	workersBusy      prometheus.Gauge
	jobsRunning      prometheus.Gauge
	changesDetected  *prometheus.CounterVec
}

// New registers every metric against reg and returns the bundle. Pass
// prometheus.DefaultRegisterer for the process-wide registry, or a fresh
// prometheus.NewRegistry() in tests to avoid collisions across cases.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		capturesCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "velocitycmdb",
			Subsystem: "collection",
			Name:      "captures_created_total",
			Help:      "Capture files written, by capture type.",
		}, []string{"capture_type"}),
		devicesCollected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "velocitycmdb",
			Subsystem: "collection",
			Name:      "devices_total",
			Help:      "Devices processed by a collection run, by outcome.",
		}, []string{"outcome"}),
		workersBusy: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "velocitycmdb",
			Subsystem: "collection",
			Name:      "workers_busy",
			Help:      "SSH sessions currently open across all in-flight collection runs.",
		}),
		jobsRunning: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "velocitycmdb",
			Subsystem: "jobs",
			Name:      "running",
			Help:      "Named jobs currently executing.",
		}),
		changesDetected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "velocitycmdb",
			Subsystem: "changearchive",
			Name:      "changes_detected_total",
			Help:      "Capture changes recorded, by severity.",
		}, []string{"severity"}),
	}
}

func (m *Metrics) ObserveCapture(captureType string) {
	if m == nil {
		return
	}
	m.capturesCreated.WithLabelValues(captureType).Inc()
}

func (m *Metrics) ObserveDevice(outcome string) {
	if m == nil {
		return
	}
	m.devicesCollected.WithLabelValues(outcome).Inc()
}

func (m *Metrics) WorkerStarted() {
	if m == nil {
		return
	}
	m.workersBusy.Inc()
}

func (m *Metrics) WorkerFinished() {
	if m == nil {
		return
	}
	m.workersBusy.Dec()
}

func (m *Metrics) JobStarted() {
	if m == nil {
		return
	}
	m.jobsRunning.Inc()
}

func (m *Metrics) JobFinished() {
	if m == nil {
		return
	}
	m.jobsRunning.Dec()
}

func (m *Metrics) ObserveChange(severity string) {
	if m == nil {
		return
	}
	m.changesDetected.WithLabelValues(severity).Inc()
}
