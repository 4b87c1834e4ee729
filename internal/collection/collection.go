// Package collection implements the collection orchestrator (§4.3): it
// turns a device selection and a set of capture types into a bounded
// fan-out of SSH sessions, emitting live per-device progress and writing
// raw outputs to disk.
package collection

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/velocitycmdb/velocitycmdb/internal/catalog"
	"github.com/velocitycmdb/velocitycmdb/internal/errs"
	"github.com/velocitycmdb/velocitycmdb/internal/metrics"
	"github.com/velocitycmdb/velocitycmdb/internal/parseload"
	"github.com/velocitycmdb/velocitycmdb/internal/progress"
	"github.com/velocitycmdb/velocitycmdb/internal/sshclient"
	"github.com/velocitycmdb/velocitycmdb/internal/vendor"
	"github.com/velocitycmdb/velocitycmdb/internal/workerpool"
)

// Target is one device to collect from.
type Target struct {
	DeviceID     string
	Hostname     string
	ManagementIP string
	Vendor       vendor.Vendor
}

// Options bounds the collection run (§4.3 public contract).
type Options struct {
	MaxWorkers int
	Timeout    time.Duration
	AutoLoadDB bool
}

func (o Options) withDefaults() Options {
	if o.MaxWorkers < 1 {
		o.MaxWorkers = 5
	}
	if o.MaxWorkers > 50 {
		o.MaxWorkers = 50
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	return o
}

// Summary is the completion result returned once every work item has
// drained (§4.3 "summary" event payload).
type Summary struct {
	DevicesSucceeded int
	DevicesFailed    int
	CapturesCreated  map[catalog.Type]int
	ExecutionTime    time.Duration
	LoadReports      map[catalog.Type]*parseload.LoadReport
}

// pagingCommand disables pagination before the capture command runs, so
// RunUntilPrompt never stalls behind a "--More--" prompt.
func pagingCommand(v vendor.Vendor) string {
	if p, ok := vendor.Dispatch[v]; ok {
		return p.PagingOffCmd
	}
	return "terminal length 0"
}

// state is the per device-job lifecycle (§4.3 state machine diagram),
// modeled as an explicit enum rather than a free-form string so illegal
// transitions are a compile-time-checked, test-asserted impossibility.
type state int

const (
	stateIdle state = iota
	stateConnecting
	stateCollecting
	stateClosing
	stateSuccess
	stateFailed
)

var legalTransitions = map[state][]state{
	stateIdle:       {stateConnecting},
	stateConnecting: {stateCollecting, stateFailed},
	stateCollecting: {stateClosing, stateFailed},
	stateClosing:    {stateSuccess, stateFailed},
}

// deviceJob tracks one (device, capture_type) work item through the
// lifecycle diagram.
type deviceJob struct {
	target      Target
	captureType catalog.Type
	state       state
}

func (j *deviceJob) transition(to state) error {
	for _, allowed := range legalTransitions[j.state] {
		if allowed == to {
			j.state = to
			return nil
		}
	}
	return fmt.Errorf("collection: illegal transition %d -> %d", j.state, to)
}

type jobKey struct {
	vendor      vendor.Vendor
	captureType catalog.Type
}

func (k jobKey) name() string {
	prefix := "unknown"
	if p, ok := vendor.Dispatch[k.vendor]; ok {
		prefix = p.TemplateFilterPrefix
	}
	return fmt.Sprintf("%s-%s", prefix, k.captureType)
}

// Collector runs collection batches against a pool of SSH-reachable
// devices, optionally feeding results into the parse-and-load layer.
type Collector struct {
	Dialer    sshclient.Dialer
	OutputDir string
	Loader    *parseload.Loader // nil disables auto_load_db regardless of Options
	Metrics   *metrics.Metrics  // nil disables metric emission
	// DialLimiter, if set, is waited on before every dial attempt so a
	// large MaxWorkers fan-out still can't open connections against a
	// device fleet faster than the configured rate.
	DialLimiter *rate.Limiter
}

// waitDialLimiter blocks until the limiter admits one dial, or ctx is
// done. A nil limiter never blocks.
func (c *Collector) waitDialLimiter(ctx context.Context) error {
	if c.DialLimiter == nil {
		return nil
	}
	return c.DialLimiter.Wait(ctx)
}

// Run fans out across devices x capture_types, bounded by opts.MaxWorkers
// concurrent SSH sessions (§4.3 "a single workerpool.Run over the
// flattened device x capture work list").
func (c *Collector) Run(ctx context.Context, devices []Target, types []catalog.Type, creds sshclient.Credentials, opts Options, bus *progress.Bus) (*Summary, error) {
	opts = opts.withDefaults()
	start := time.Now()
	jobID := uuid.New().String()

	publish := func(e progress.Event) {
		if bus != nil {
			e.JobID = jobID
			bus.Publish(e)
		}
	}

	var jobs []*deviceJob
	remaining := make(map[jobKey]int)
	for _, t := range devices {
		for _, ct := range types {
			jobs = append(jobs, &deviceJob{target: t, captureType: ct})
			remaining[jobKey{t.Vendor, ct}]++
		}
	}
	total := len(jobs)

	var mu sync.Mutex
	started := make(map[jobKey]bool)
	completed := 0
	devicesSucceeded := make(map[string]bool)
	devicesFailed := make(map[string]bool)
	capturesCreated := make(map[catalog.Type]int)

	err := workerpool.Run(ctx, jobs, opts.MaxWorkers, func(ctx context.Context, job *deviceJob) error {
		key := jobKey{job.target.Vendor, job.captureType}

		mu.Lock()
		firstInJob := !started[key]
		started[key] = true
		mu.Unlock()
		if firstInJob {
			publish(progress.Event{Type: progress.JobStart, Message: key.name()})
		}

		publish(progress.Event{Type: progress.DeviceStart, Device: job.target.Hostname})

		c.Metrics.WorkerStarted()
		success, message := c.runOne(ctx, job, creds, opts)
		c.Metrics.WorkerFinished()

		publish(progress.Event{Type: progress.DeviceComplete, Device: job.target.Hostname, Success: progress.BoolPtr(success), Message: message})

		mu.Lock()
		completed++
		if success {
			capturesCreated[job.captureType]++
			c.Metrics.ObserveCapture(string(job.captureType))
			if !devicesFailed[job.target.DeviceID] {
				devicesSucceeded[job.target.DeviceID] = true
			}
		} else {
			devicesFailed[job.target.DeviceID] = true
			delete(devicesSucceeded, job.target.DeviceID)
		}
		remaining[key]--
		jobDone := remaining[key] == 0
		completedSoFar := completed
		mu.Unlock()

		percent := 0
		if total > 0 {
			percent = completedSoFar * 100 / total
		}
		publish(progress.Event{Type: progress.Progress, Completed: completedSoFar, Total: total, Message: fmt.Sprintf("%d%%", percent)})

		if jobDone {
			publish(progress.Event{Type: progress.JobComplete, Message: key.name()})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collection run: %w", err)
	}

	summary := &Summary{
		DevicesSucceeded: len(devicesSucceeded),
		DevicesFailed:    len(devicesFailed),
		CapturesCreated:  capturesCreated,
		ExecutionTime:    time.Since(start),
	}
	for i := 0; i < summary.DevicesSucceeded; i++ {
		c.Metrics.ObserveDevice("success")
	}
	for i := 0; i < summary.DevicesFailed; i++ {
		c.Metrics.ObserveDevice("failed")
	}

	if opts.AutoLoadDB && c.Loader != nil {
		summary.LoadReports = make(map[catalog.Type]*parseload.LoadReport)
		for _, ct := range types {
			report, loadErr := c.Loader.Load(ctx, c.OutputDir, ct)
			if loadErr != nil {
				// a load/archive failure never touches the raw capture files
				// already on disk (§4.3 "Post-run loading") -- it is recorded
				// and the run still reports its SSH-phase summary.
				report = loadFailureReport(loadErr)
			}
			summary.LoadReports[ct] = report
		}
	}

	publish(progress.Event{
		Type:       progress.Summary,
		Identified: summary.DevicesSucceeded,
		Failed:     summary.DevicesFailed,
	})

	return summary, nil
}

// loadFailureReport gives a failed Load() call a non-nil report with the
// failure recorded as a single reason, rather than leaving that capture
// type's entry absent from Summary.LoadReports.
func loadFailureReport(err error) *parseload.LoadReport {
	return &parseload.LoadReport{
		FilesFailed: 1,
		Reasons:     []parseload.FailureReason{{Reason: err.Error()}},
	}
}

// runOne drives a single device-job through CONNECTING -> COLLECTING ->
// CLOSING -> SUCCESS/FAILED (§4.3 state machine), returning the outcome
// for the device_complete event.
func (c *Collector) runOne(ctx context.Context, job *deviceJob, creds sshclient.Credentials, opts Options) (bool, string) {
	if ctx.Err() != nil {
		return false, "cancelled"
	}

	if err := job.transition(stateConnecting); err != nil {
		return false, err.Error()
	}

	if err := c.waitDialLimiter(ctx); err != nil {
		_ = job.transition(stateFailed)
		return false, "cancelled"
	}

	addr := fmt.Sprintf("%s:22", job.target.ManagementIP)
	cfg := sshclient.Config{CommandTimeout: opts.Timeout}
	sess, err := c.Dialer.Dial(ctx, addr, creds, cfg)
	if err != nil {
		_ = job.transition(stateFailed)
		return false, (&errs.TransportError{Device: job.target.Hostname, Op: "dial", Err: err}).Error()
	}
	defer sess.Close()

	if err := job.transition(stateCollecting); err != nil {
		return false, err.Error()
	}

	if ctx.Err() != nil {
		_ = job.transition(stateFailed)
		return false, "cancelled"
	}

	if _, err := sess.RunUntilPrompt(ctx, pagingCommand(job.target.Vendor), 1); err != nil {
		_ = job.transition(stateFailed)
		return false, (&errs.ProtocolError{Device: job.target.Hostname, Command: pagingCommand(job.target.Vendor), Err: err}).Error()
	}

	cmd, ok := catalog.CommandFor(job.captureType, job.target.Vendor)
	if !ok {
		_ = job.transition(stateFailed)
		return false, fmt.Sprintf("no command for capture type %s on this vendor", job.captureType)
	}

	output, err := sess.RunUntilPrompt(ctx, cmd, 1)
	if err != nil {
		_ = job.transition(stateFailed)
		return false, (&errs.ProtocolError{Device: job.target.Hostname, Command: cmd, Err: err}).Error()
	}

	if err := job.transition(stateClosing); err != nil {
		return false, err.Error()
	}

	if err := c.writeCapture(job.target.Hostname, job.captureType, output); err != nil {
		_ = job.transition(stateFailed)
		return false, fmt.Sprintf("write_error: %v", err)
	}

	_ = job.transition(stateSuccess)
	return true, ""
}

func (c *Collector) writeCapture(hostname string, captureType catalog.Type, content string) error {
	dir := filepath.Join(c.OutputDir, string(captureType))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	path := filepath.Join(dir, hostname+".txt")
	return os.WriteFile(path, []byte(content), 0o644)
}
