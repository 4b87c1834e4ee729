// Package jobs implements named recurring jobs and the in-memory job
// registry (§3 "Discovery job / Collection job / Fingerprint job", §6 "job"
// CLI verb): a single-owner, sync.RWMutex-guarded map of running jobs that
// external callers never reach into directly.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/velocitycmdb/velocitycmdb/internal/progress"
)

// Kind is the closed set of work a named job can run.
type Kind string

const (
	KindDiscover    Kind = "discover"
	KindFingerprint Kind = "fingerprint"
	KindCollect     Kind = "collect"
)

// Descriptor is one named job's definition, persisted to scheduled_jobs.
type Descriptor struct {
	ID         string
	Name       string
	Kind       Kind
	Schedule   string // Go duration string ("15m", "1h"); empty = run-once
	Enabled    bool
	Params     json.RawMessage
	LastRunAt  time.Time
}

// Interval parses Schedule as a Go duration. ok is false for a run-once
// descriptor (empty Schedule) or an unparseable one.
func (d Descriptor) Interval() (time.Duration, bool) {
	if d.Schedule == "" {
		return 0, false
	}
	dur, err := time.ParseDuration(d.Schedule)
	if err != nil || dur <= 0 {
		return 0, false
	}
	return dur, true
}

// Due reports whether d should fire now, given it last ran at lastRun
// (zero value if never).
func (d Descriptor) Due(now time.Time) bool {
	if !d.Enabled {
		return false
	}
	interval, ok := d.Interval()
	if !ok {
		return d.LastRunAt.IsZero()
	}
	return now.Sub(d.LastRunAt) >= interval
}

// Runner executes one job kind. Collection, discovery, and fingerprint
// each register a Runner so the registry never imports them directly.
type Runner func(ctx context.Context, d Descriptor, bus *progress.Bus) error

// runningJob tracks one in-flight or completed invocation.
type runningJob struct {
	descriptor Descriptor
	cancel     context.CancelFunc
	bus        *progress.Bus
	done       chan struct{}
	err        error
}

// Registry owns every in-flight job invocation. External packages only
// ever see a jobID and a *progress.Bus to subscribe to, never the
// runningJob itself (§3 "Registry" single-owner map).
type Registry struct {
	mu      sync.RWMutex
	runners map[Kind]Runner
	running map[string]*runningJob
}

func NewRegistry() *Registry {
	return &Registry{
		runners: make(map[Kind]Runner),
		running: make(map[string]*runningJob),
	}
}

// Register wires a Kind to the function that executes it.
func (r *Registry) Register(kind Kind, fn Runner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runners[kind] = fn
}

// Start launches d's runner in a goroutine and returns its job ID and
// progress bus immediately; callers subscribe to the bus for live events.
func (r *Registry) Start(ctx context.Context, d Descriptor) (string, *progress.Bus, error) {
	r.mu.RLock()
	fn, ok := r.runners[d.Kind]
	r.mu.RUnlock()
	if !ok {
		return "", nil, fmt.Errorf("jobs: no runner registered for kind %q", d.Kind)
	}

	jobID := uuid.New().String()
	jobCtx, cancel := context.WithCancel(ctx)
	bus := progress.NewBus()
	rj := &runningJob{descriptor: d, cancel: cancel, bus: bus, done: make(chan struct{})}

	r.mu.Lock()
	r.running[jobID] = rj
	r.mu.Unlock()

	go func() {
		defer close(rj.done)
		defer bus.Close()
		rj.err = fn(jobCtx, d, bus)
	}()

	return jobID, bus, nil
}

// Get looks up a running or completed job by ID.
func (r *Registry) Get(jobID string) (*runningJob, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rj, ok := r.running[jobID]
	return rj, ok
}

// Bus returns jobID's progress bus, for callers (the websocket gateway)
// that only need to subscribe and never touch the runningJob itself.
func (r *Registry) Bus(jobID string) (*progress.Bus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rj, ok := r.running[jobID]
	if !ok {
		return nil, false
	}
	return rj.bus, true
}

// Descriptor returns the descriptor jobID was started with.
func (r *Registry) Descriptor(jobID string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rj, ok := r.running[jobID]
	if !ok {
		return Descriptor{}, false
	}
	return rj.descriptor, true
}

// Cancel signals jobID's context; the runner is responsible for aborting
// at its next I/O boundary (§5 "cooperative at I/O boundaries").
func (r *Registry) Cancel(jobID string) error {
	r.mu.RLock()
	rj, ok := r.running[jobID]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("jobs: unknown job %q", jobID)
	}
	rj.cancel()
	return nil
}

// Wait blocks until jobID's runner returns, for callers (like the
// scheduler) that need the outcome rather than just firing and forgetting.
func (r *Registry) Wait(jobID string) error {
	r.mu.RLock()
	rj, ok := r.running[jobID]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("jobs: unknown job %q", jobID)
	}
	<-rj.done
	return rj.err
}
