package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveCaptureIncrementsByType(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveCapture("configs")
	m.ObserveCapture("configs")
	m.ObserveCapture("version")

	if got := testutil.ToFloat64(m.capturesCreated.WithLabelValues("configs")); got != 2 {
		t.Errorf("configs count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.capturesCreated.WithLabelValues("version")); got != 1 {
		t.Errorf("version count = %v, want 1", got)
	}
}

func TestWorkerGaugeTracksIncDec(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.WorkerStarted()
	m.WorkerStarted()
	m.WorkerFinished()

	if got := testutil.ToFloat64(m.workersBusy); got != 1 {
		t.Errorf("workersBusy = %v, want 1", got)
	}
}

func TestNilMetricsIsNoOp(t *testing.T) {
	var m *Metrics
	m.ObserveCapture("configs")
	m.ObserveDevice("success")
	m.WorkerStarted()
	m.WorkerFinished()
	m.JobStarted()
	m.JobFinished()
	m.ObserveChange("critical")
}

func TestObserveChangeBySeverity(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveChange("critical")
	m.ObserveChange("critical")
	m.ObserveChange("minor")

	if got := testutil.ToFloat64(m.changesDetected.WithLabelValues("critical")); got != 2 {
		t.Errorf("critical count = %v, want 2", got)
	}
}
