package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/velocitycmdb/velocitycmdb/internal/progress"
)

func TestDescriptorIntervalParsesDuration(t *testing.T) {
	d := Descriptor{Schedule: "15m"}
	interval, ok := d.Interval()
	if !ok || interval != 15*time.Minute {
		t.Errorf("Interval() = %v, %v", interval, ok)
	}
}

func TestDescriptorIntervalEmptyIsRunOnce(t *testing.T) {
	d := Descriptor{Schedule: ""}
	if _, ok := d.Interval(); ok {
		t.Error("Interval() ok = true for empty schedule, want false")
	}
}

func TestDescriptorDueRunOnceFiresOnlyWhenNeverRun(t *testing.T) {
	d := Descriptor{Enabled: true}
	if !d.Due(time.Now()) {
		t.Error("Due() = false for a never-run, enabled, run-once descriptor")
	}
	d.LastRunAt = time.Now()
	if d.Due(time.Now()) {
		t.Error("Due() = true for an already-run, run-once descriptor")
	}
}

func TestDescriptorDueRecurringRespectsInterval(t *testing.T) {
	d := Descriptor{Enabled: true, Schedule: "1h", LastRunAt: time.Now().Add(-30 * time.Minute)}
	if d.Due(time.Now()) {
		t.Error("Due() = true before the interval has elapsed")
	}
	d.LastRunAt = time.Now().Add(-2 * time.Hour)
	if !d.Due(time.Now()) {
		t.Error("Due() = false after the interval has elapsed")
	}
}

func TestDescriptorDueDisabledNeverFires(t *testing.T) {
	d := Descriptor{Enabled: false}
	if d.Due(time.Now()) {
		t.Error("Due() = true for a disabled descriptor")
	}
}

func TestRegistryStartRunsRegisteredKind(t *testing.T) {
	r := NewRegistry()
	ran := make(chan struct{})
	r.Register(KindCollect, func(ctx context.Context, d Descriptor, bus *progress.Bus) error {
		close(ran)
		return nil
	})

	jobID, bus, err := r.Start(context.Background(), Descriptor{Name: "test", Kind: KindCollect})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if jobID == "" || bus == nil {
		t.Fatal("Start() returned empty jobID or nil bus")
	}

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("runner was never invoked")
	}
	if err := r.Wait(jobID); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}

func TestRegistryStartUnknownKindErrors(t *testing.T) {
	r := NewRegistry()
	if _, _, err := r.Start(context.Background(), Descriptor{Kind: KindDiscover}); err == nil {
		t.Error("Start() with no registered runner should error")
	}
}

func TestRegistryCancelSignalsRunnerContext(t *testing.T) {
	r := NewRegistry()
	cancelled := make(chan struct{})
	r.Register(KindCollect, func(ctx context.Context, d Descriptor, bus *progress.Bus) error {
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	})

	jobID, _, err := r.Start(context.Background(), Descriptor{Kind: KindCollect})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := r.Cancel(jobID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("runner never observed cancellation")
	}
}
