package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/velocitycmdb/velocitycmdb/internal/jobs"
	"github.com/velocitycmdb/velocitycmdb/internal/store"
)

// runJob dispatches the `job {create|list|show|run|enable|disable|delete}`
// verb family (§6).
func runJob(args []string, logger *zap.Logger) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: velocitycmdb job {create|list|show|run|enable|disable|delete} ...")
		os.Exit(exitPartial)
	}
	sub, rest := args[0], args[1:]

	fs := flag.NewFlagSet("job-"+sub, flag.ExitOnError)
	configFlag := fs.String("config", "", "path to configuration file")
	name := fs.String("name", "", "job name")
	kind := fs.String("kind", "", "job kind: discover, fingerprint, collect")
	schedule := fs.String("schedule", "", `recurrence as a Go duration ("15m", "1h"); empty means run-once`)
	params := fs.String("params", "{}", "JSON params for the job kind")
	enabled := fs.Bool("enabled", true, "whether the job is eligible to fire")
	if err := fs.Parse(rest); err != nil {
		os.Exit(exitPartial)
	}

	cfg := loadConfig(logger, *configFlag)
	a, err := openApp(cfg, logger)
	if err != nil {
		fatal(logger, exitTotalFailure, "job", err)
	}
	defer a.Close()
	a.registerRunners()

	ctx := context.Background()

	switch sub {
	case "create":
		if *name == "" || *kind == "" {
			fmt.Fprintln(os.Stderr, "error: --name and --kind are required")
			os.Exit(exitPartial)
		}
		rec := &store.JobRecord{Name: *name, Kind: *kind, Schedule: *schedule, Enabled: *enabled, Params: *params}
		if err := a.JobRecords.Upsert(ctx, rec); err != nil {
			fatal(logger, exitTotalFailure, "job create", err)
		}
		fmt.Printf("created job %q (id=%s)\n", rec.Name, rec.ID)

	case "list":
		recs, err := a.JobRecords.List(ctx)
		if err != nil {
			fatal(logger, exitTotalFailure, "job list", err)
		}
		for _, r := range recs {
			fmt.Printf("%s\t%s\t%s\tschedule=%s\tenabled=%v\n", r.ID, r.Name, r.Kind, r.Schedule, r.Enabled)
		}

	case "show":
		rec := requireJobByName(ctx, a, fs.Arg(0), logger)
		fmt.Printf("id: %s\nname: %s\nkind: %s\nschedule: %s\nenabled: %v\nlast_run_at: %s\nparams: %s\n",
			rec.ID, rec.Name, rec.Kind, rec.Schedule, rec.Enabled, rec.LastRunAt, rec.Params)

	case "run":
		rec := requireJobByName(ctx, a, fs.Arg(0), logger)
		runJobNow(ctx, a, rec, logger)

	case "enable":
		rec := requireJobByName(ctx, a, fs.Arg(0), logger)
		if err := a.JobRecords.SetEnabled(ctx, rec.ID, true); err != nil {
			fatal(logger, exitTotalFailure, "job enable", err)
		}
		fmt.Printf("enabled %q\n", rec.Name)

	case "disable":
		rec := requireJobByName(ctx, a, fs.Arg(0), logger)
		if err := a.JobRecords.SetEnabled(ctx, rec.ID, false); err != nil {
			fatal(logger, exitTotalFailure, "job disable", err)
		}
		fmt.Printf("disabled %q\n", rec.Name)

	case "delete":
		rec := requireJobByName(ctx, a, fs.Arg(0), logger)
		if err := a.JobRecords.Delete(ctx, rec.ID); err != nil {
			fatal(logger, exitTotalFailure, "job delete", err)
		}
		fmt.Printf("deleted %q\n", rec.Name)

	default:
		fmt.Fprintf(os.Stderr, "unknown job subcommand %q\n", sub)
		os.Exit(exitPartial)
	}
}

func requireJobByName(ctx context.Context, a *app, name string, logger *zap.Logger) *store.JobRecord {
	if name == "" {
		fmt.Fprintln(os.Stderr, "error: job name is required")
		os.Exit(exitPartial)
	}
	rec, err := a.JobRecords.GetByName(ctx, name)
	if err != nil {
		fatal(logger, exitPartial, "job lookup", err)
	}
	return rec
}

// runJobNow starts rec through the registry and blocks until it
// completes, printing its progress events to stdout.
func runJobNow(ctx context.Context, a *app, rec *store.JobRecord, logger *zap.Logger) {
	d := descriptorFromRecord(*rec)
	jobID, bus, err := a.Registry.Start(ctx, d)
	if err != nil {
		fatal(logger, exitTotalFailure, "job run", err)
	}
	stop := printProgress(bus)
	err = a.Registry.Wait(jobID)
	stop()
	_ = a.JobRecords.TouchLastRun(ctx, rec.ID, time.Now().UTC())
	if err != nil {
		fmt.Fprintf(os.Stderr, "job run failed: %v\n", err)
		os.Exit(exitTotalFailure)
	}
	fmt.Printf("job %q completed\n", rec.Name)
}

// descriptorFromRecord mirrors internal/scheduler's unexported helper of
// the same name: store.JobRecord is the persisted column set,
// jobs.Descriptor is the in-memory domain type the registry runs.
func descriptorFromRecord(rec store.JobRecord) jobs.Descriptor {
	return jobs.Descriptor{
		ID:        rec.ID,
		Name:      rec.Name,
		Kind:      jobs.Kind(rec.Kind),
		Schedule:  rec.Schedule,
		Enabled:   rec.Enabled,
		Params:    json.RawMessage(rec.Params),
		LastRunAt: rec.LastRunAt,
	}
}
