// Package scheduler ticks over the persisted scheduled_jobs table and
// fires due jobs through the in-memory jobs.Registry. Grounded on the
// teacher's health-check ticker loop (internal/scout/agent.go's
// time.NewTicker + select{case <-ctx.Done(): ...; case <-ticker.C: ...}
// shape, itself mirrored by internal/pulse), re-themed from "periodic
// liveness check-in" to "periodic named-job dispatch." Recovers the
// scheduling loop behind the original deployment's `job run` CLI verb,
// which spec.md names only as a command without describing how recurring
// jobs actually fire.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/velocitycmdb/velocitycmdb/internal/jobs"
	"github.com/velocitycmdb/velocitycmdb/internal/metrics"
	"github.com/velocitycmdb/velocitycmdb/internal/progress"
	"github.com/velocitycmdb/velocitycmdb/internal/store"
)

// Scheduler polls store.JobRepository every tick and starts any enabled,
// due job through the registry.
type Scheduler struct {
	Registry *jobs.Registry
	Jobs     store.JobRepository
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Tick     time.Duration // default 30s
}

func (s *Scheduler) withDefaults() *Scheduler {
	if s.Tick <= 0 {
		s.Tick = 30 * time.Second
	}
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}
	return s
}

// Run blocks until ctx is cancelled, firing due jobs on each tick.
func (s *Scheduler) Run(ctx context.Context) error {
	s = s.withDefaults()
	ticker := time.NewTicker(s.Tick)
	defer ticker.Stop()

	s.Logger.Info("scheduler running", zap.Duration("tick", s.Tick))

	for {
		select {
		case <-ctx.Done():
			s.Logger.Info("scheduler shutting down")
			return nil
		case <-ticker.C:
			s.fireDueJobs(ctx)
		}
	}
}

func (s *Scheduler) fireDueJobs(ctx context.Context) {
	records, err := s.Jobs.List(ctx)
	if err != nil {
		s.Logger.Error("list scheduled_jobs failed", zap.Error(err))
		return
	}

	now := time.Now().UTC()
	for _, rec := range records {
		d := descriptorFromRecord(rec)
		if !d.Due(now) {
			continue
		}

		jobID, bus, err := s.Registry.Start(ctx, d)
		if err != nil {
			s.Logger.Error("start job failed", zap.String("name", rec.Name), zap.Error(err))
			continue
		}
		s.Logger.Info("fired scheduled job", zap.String("name", rec.Name), zap.String("job_id", jobID))
		s.Metrics.JobStarted()

		if err := s.Jobs.TouchLastRun(ctx, rec.ID, now); err != nil {
			s.Logger.Error("touch last_run_at failed", zap.String("name", rec.Name), zap.Error(err))
		}

		go s.drain(rec.Name, bus)
	}
}

// drain consumes a fired job's progress bus so its buffered channel (and
// the goroutine behind it) don't leak when nothing else subscribes.
func (s *Scheduler) drain(name string, bus *progress.Bus) {
	ch, cancel := bus.Subscribe(16)
	defer cancel()
	for e := range ch {
		if e.Type == progress.Summary {
			s.Logger.Info("scheduled job completed", zap.String("name", name))
		}
	}
	s.Metrics.JobFinished()
}

func descriptorFromRecord(rec store.JobRecord) jobs.Descriptor {
	return jobs.Descriptor{
		ID:        rec.ID,
		Name:      rec.Name,
		Kind:      jobs.Kind(rec.Kind),
		Schedule:  rec.Schedule,
		Enabled:   rec.Enabled,
		Params:    []byte(rec.Params),
		LastRunAt: rec.LastRunAt,
	}
}
