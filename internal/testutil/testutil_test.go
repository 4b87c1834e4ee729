package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/velocitycmdb/velocitycmdb/internal/progress"
)

func TestLogger_NotNil(t *testing.T) {
	l := Logger()
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNewStore_Usable(t *testing.T) {
	db := NewStore(t)
	if db == nil {
		t.Fatal("expected non-nil store")
	}
	if err := db.DB().PingContext(context.Background()); err != nil {
		t.Fatalf("PingContext: %v", err)
	}
}

func TestEventRecorder_RecordsPublishedEvents(t *testing.T) {
	bus := progress.NewBus()
	rec := NewEventRecorder(bus)

	bus.Publish(progress.Event{Type: progress.JobStart, JobID: "job-1"})
	bus.Publish(progress.Event{Type: progress.JobComplete, JobID: "job-1"})
	bus.Close()

	if !rec.WaitClosed(time.Second) {
		t.Fatal("recorder did not observe bus close in time")
	}

	events := rec.Events()
	if len(events) != 2 {
		t.Fatalf("Events() len = %d, want 2", len(events))
	}
	if events[0].Type != progress.JobStart || events[1].Type != progress.JobComplete {
		t.Errorf("Events() = %+v", events)
	}
}

func TestClock_Advance(t *testing.T) {
	c := NewClock()
	start := c.Now()
	c.Advance(5 * time.Minute)
	if got := c.Now().Sub(start); got != 5*time.Minute {
		t.Errorf("Advance: elapsed = %v, want 5m", got)
	}
}

func TestClock_Set(t *testing.T) {
	c := NewClock()
	target := time.Date(2030, 6, 15, 12, 0, 0, 0, time.UTC)
	c.Set(target)
	if !c.Now().Equal(target) {
		t.Errorf("Set: got %v, want %v", c.Now(), target)
	}
}

func TestNewDevice_Defaults(t *testing.T) {
	d := NewDevice()
	if d.ID == "" {
		t.Error("expected non-empty ID")
	}
	if d.DeviceType != "cisco_ios" {
		t.Errorf("DeviceType = %q, want cisco_ios", d.DeviceType)
	}
	if d.Name != "test-device" {
		t.Errorf("Name = %q, want test-device", d.Name)
	}
}

func TestNewDevice_WithOptions(t *testing.T) {
	d := NewDevice(
		WithName("MyHost"),
		WithManagementIP("10.0.0.1"),
		WithDeviceType("juniper_junos"),
	)
	if d.Name != "MyHost" {
		t.Errorf("Name = %q, want MyHost", d.Name)
	}
	if d.NormalizedName != "myhost" {
		t.Errorf("NormalizedName = %q, want myhost", d.NormalizedName)
	}
	if d.ManagementIP != "10.0.0.1" {
		t.Errorf("ManagementIP = %q, want 10.0.0.1", d.ManagementIP)
	}
	if d.DeviceType != "juniper_junos" {
		t.Errorf("DeviceType = %q, want juniper_junos", d.DeviceType)
	}
}
