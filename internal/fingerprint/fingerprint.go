// Package fingerprint implements the fingerprint engine (§4.2): for each
// inventory entry without a confirmed platform, SSH in, run the
// command-selection state machine, and assign a normalized device_type.
package fingerprint

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/velocitycmdb/velocitycmdb/internal/errs"
	"github.com/velocitycmdb/velocitycmdb/internal/fieldmap"
	"github.com/velocitycmdb/velocitycmdb/internal/inventory"
	"github.com/velocitycmdb/velocitycmdb/internal/sshclient"
	"github.com/velocitycmdb/velocitycmdb/internal/store"
	"github.com/velocitycmdb/velocitycmdb/internal/templatedb"
	"github.com/velocitycmdb/velocitycmdb/internal/vendor"
	"github.com/velocitycmdb/velocitycmdb/internal/workerpool"
	"github.com/velocitycmdb/velocitycmdb/pkg/models"
)

// Options controls fingerprint concurrency, per-device timeout, and the
// minimum template score (§4.2, REDESIGN FLAGS #1: config, not a constant).
type Options struct {
	MaxWorkers int
	Timeout    time.Duration
	MinScore   int
}

func (o Options) withDefaults() Options {
	if o.MaxWorkers <= 0 {
		o.MaxWorkers = 8
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.MinScore <= 0 {
		o.MinScore = 20
	}
	return o
}

// FailedDevice records why one device could not be fingerprinted.
type FailedDevice struct {
	Name   string
	Reason string
}

// Report summarizes one fingerprint run.
type Report struct {
	Identified    int
	Failed        int
	FailedDevices []FailedDevice
}

// Fingerprinter runs the fingerprint engine against an inventory file.
type Fingerprinter struct {
	Dialer    sshclient.Dialer
	Templates *templatedb.Database
	Devices   store.DeviceRepository
}

type sessionTarget struct {
	Folder  string
	Session inventory.Session
}

// Run fingerprints every inventory entry not already marked Fingerprinted,
// bounded by opts.MaxWorkers concurrent SSH sessions, and updates inv in
// place plus the device record for every device identified (§4.2 public
// contract).
func (fp *Fingerprinter) Run(ctx context.Context, inv *inventory.File, creds sshclient.Credentials, opts Options) (*Report, error) {
	opts = opts.withDefaults()

	var pending []sessionTarget
	for _, d := range inv.Devices() {
		if !d.Session.Fingerprinted {
			pending = append(pending, sessionTarget{Folder: d.Folder, Session: d.Session})
		}
	}

	report := &Report{}
	var mu sync.Mutex

	err := workerpool.Run(ctx, pending, opts.MaxWorkers, func(ctx context.Context, target sessionTarget) error {
		result, fpErr := fp.fingerprintOne(ctx, target.Session, creds, opts)

		mu.Lock()
		defer mu.Unlock()

		if fpErr != nil {
			report.Failed++
			report.FailedDevices = append(report.FailedDevices, FailedDevice{Name: target.Session.Name, Reason: fpErr.Error()})
			return nil
		}

		updated := target.Session
		updated.DeviceType = result.vendor.String()
		updated.Vendor = result.vendor.String()
		updated.Model = result.model
		updated.SoftwareVersion = result.softwareVersion
		updated.Fingerprinted = true
		inv.UpdateSession(target.Session.Name, updated)

		if fp.Devices != nil {
			now := time.Now().UTC()
			dev := &models.Device{
				Name:            target.Session.Name,
				NormalizedName:  models.NormalizeName(target.Session.Name),
				ManagementIP:    target.Session.IP,
				DeviceType:      result.vendor.String(),
				Model:           result.model,
				SoftwareVersion: result.softwareVersion,
				Serial:          result.serial,
				SourceSystem:    "fingerprint",
				FingerprintedAt: now,
				Timestamp:       now,
			}
			if err := fp.Devices.Upsert(ctx, dev); err != nil {
				return fmt.Errorf("upsert device %q: %w", target.Session.Name, err)
			}
		}

		report.Identified++
		return nil
	})
	return report, err
}

type fingerprintResult struct {
	vendor          vendor.Vendor
	model           string
	serial          string
	softwareVersion string
}

// fingerprintOne runs the per-device command-selection state machine
// (§4.2): seed with "show version", detect vendor, score against the
// template cascade, enqueue trigger follow-ups, and terminate once the
// tracked fields are populated or the queue drains.
func (fp *Fingerprinter) fingerprintOne(ctx context.Context, session inventory.Session, creds sshclient.Credentials, opts Options) (*fingerprintResult, error) {
	addr := fmt.Sprintf("%s:%d", session.IP, portOrDefault(session.Port))

	sess, err := fp.Dialer.Dial(ctx, addr, creds, sshclient.Config{CommandTimeout: opts.Timeout})
	if err != nil {
		return nil, &errs.TransportError{Device: session.Name, Op: "dial", Err: err}
	}
	defer sess.Close()

	queue := []string{"show version"}
	seen := make(map[string]bool)
	fields := make(map[string][]string)
	v := vendor.Unknown

	for len(queue) > 0 {
		cmd := queue[0]
		queue = queue[1:]
		if seen[cmd] {
			continue
		}
		seen[cmd] = true

		out, err := sess.RunUntilPrompt(ctx, cmd, 1)
		if err != nil {
			return nil, &errs.ProtocolError{Device: session.Name, Command: cmd, Err: err}
		}
		if v == vendor.Unknown {
			v = vendor.DetectFromSignature(out)
		}

		filterList := fp.Templates.FilterList(v, cmd)
		if result, err := fp.Templates.BestMatch(out, filterList, opts.MinScore); err == nil {
			for k, vals := range result.Fields {
				fields[k] = append(fields[k], vals...)
			}
		}

		for _, followUp := range FollowUps(v, out) {
			if !seen[followUp] {
				queue = append(queue, followUp)
			}
		}

		if softwareVersion, model, serial, _ := trackedFields(fields); softwareVersion != "" && model != "" && serial != "" {
			return &fingerprintResult{vendor: v, model: model, serial: serial, softwareVersion: softwareVersion}, nil
		}
	}

	if softwareVersion, model, serial, ok := trackedFields(fields); ok {
		return &fingerprintResult{vendor: v, model: model, serial: serial, softwareVersion: softwareVersion}, nil
	}
	return nil, fmt.Errorf("no tracked field extracted for %s", session.Name)
}

// trackedFields resolves the three tracked fields via the vendor-agnostic
// priority chains and reports success if any one of them resolved (§4.2
// "Success criterion... any tracked field extracted").
func trackedFields(fields map[string][]string) (softwareVersion, model, serial string, ok bool) {
	softwareVersion, _ = fieldmap.SoftwareVersion.Resolve(fields)
	model, _ = fieldmap.Model.Resolve(fields)
	serial, _ = fieldmap.SerialNumber.Resolve(fields)
	return softwareVersion, model, serial, softwareVersion != "" || model != "" || serial != ""
}

func portOrDefault(p int) int {
	if p <= 0 {
		return 22
	}
	return p
}
