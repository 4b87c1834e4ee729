package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/velocitycmdb/velocitycmdb/internal/catalog"
	"github.com/velocitycmdb/velocitycmdb/internal/collection"
	"github.com/velocitycmdb/velocitycmdb/internal/credentials"
	"github.com/velocitycmdb/velocitycmdb/internal/discovery"
	"github.com/velocitycmdb/velocitycmdb/internal/fingerprint"
	"github.com/velocitycmdb/velocitycmdb/internal/inventory"
	"github.com/velocitycmdb/velocitycmdb/internal/jobs"
	"github.com/velocitycmdb/velocitycmdb/internal/progress"
	"github.com/velocitycmdb/velocitycmdb/internal/store"
	"github.com/velocitycmdb/velocitycmdb/internal/vendor"
)

// discoverParams/fingerprintParams/collectParams are the JSON shapes
// stored in a jobs.Descriptor's Params for each job kind, set by
// `job create` and decoded here when the scheduler fires the job.

type discoverParams struct {
	SeedIP   string `json:"seed_ip"`
	Site     string `json:"site"`
	CredIndx int    `json:"cred_index"`
}

type fingerprintParams struct {
	CredIndx int `json:"cred_index"`
}

type collectParams struct {
	Types    []string `json:"types"`
	CredIndx int      `json:"cred_index"`
}

// registerRunners wires discover/fingerprint/collect into a, so the
// scheduler (and `job run`) can fire them by kind without importing any
// of the three orchestrator packages themselves.
func (a *app) registerRunners() {
	a.Registry.Register(jobs.KindDiscover, a.runDiscoverJob)
	a.Registry.Register(jobs.KindFingerprint, a.runFingerprintJob)
	a.Registry.Register(jobs.KindCollect, a.runCollectJob)
}

func (a *app) runDiscoverJob(ctx context.Context, d jobs.Descriptor, bus *progress.Bus) error {
	var p discoverParams
	if err := json.Unmarshal(d.Params, &p); err != nil {
		return fmt.Errorf("decode discover params: %w", err)
	}
	n := p.CredIndx
	if n <= 0 {
		n = 1
	}
	creds, ok := credentials.FromEnv(n)
	if !ok {
		return fmt.Errorf("no credentials at CRED_%d_USER/CRED_%d_PASS", n, n)
	}

	crawler := &discovery.Crawler{
		Dialer:        a.Dialer,
		Templates:     a.Templates,
		InventoryPath: filepath.Join(a.discoveryDir(), "sessions.yaml"),
		TopologyPath:  filepath.Join(a.discoveryDir(), "network.json"),
	}
	_, err := crawler.Run(ctx, discovery.Peer{IP: p.SeedIP}, creds, discovery.Options{SiteName: p.Site}, bus)
	return err
}

func (a *app) runFingerprintJob(ctx context.Context, d jobs.Descriptor, bus *progress.Bus) error {
	var p fingerprintParams
	if err := json.Unmarshal(d.Params, &p); err != nil {
		return fmt.Errorf("decode fingerprint params: %w", err)
	}
	n := p.CredIndx
	if n <= 0 {
		n = 1
	}
	creds, ok := credentials.FromEnv(n)
	if !ok {
		return fmt.Errorf("no credentials at CRED_%d_USER/CRED_%d_PASS", n, n)
	}

	invPath := filepath.Join(a.discoveryDir(), "sessions.yaml")
	inv, err := inventory.Load(invPath)
	if err != nil {
		return fmt.Errorf("load inventory: %w", err)
	}

	fp := &fingerprint.Fingerprinter{Dialer: a.Dialer, Templates: a.Templates, Devices: a.Devices}
	_, err = fp.Run(ctx, inv, creds, fingerprint.Options{})
	if err != nil {
		return err
	}
	return inventory.Save(invPath, inv)
}

func (a *app) runCollectJob(ctx context.Context, d jobs.Descriptor, bus *progress.Bus) error {
	var p collectParams
	if err := json.Unmarshal(d.Params, &p); err != nil {
		return fmt.Errorf("decode collect params: %w", err)
	}
	n := p.CredIndx
	if n <= 0 {
		n = 1
	}
	creds, ok := credentials.FromEnv(n)
	if !ok {
		return fmt.Errorf("no credentials at CRED_%d_USER/CRED_%d_PASS", n, n)
	}

	types := make([]catalog.Type, 0, len(p.Types))
	for _, t := range p.Types {
		types = append(types, catalog.Type(t))
	}

	invPath := filepath.Join(a.discoveryDir(), "sessions.yaml")
	inv, err := inventory.Load(invPath)
	if err != nil {
		return fmt.Errorf("load inventory: %w", err)
	}
	targets, err := targetsFromInventory(ctx, a.Devices, inv)
	if err != nil {
		return err
	}

	c := &collection.Collector{
		Dialer:    a.Dialer,
		OutputDir: a.captureDir(),
		Loader:    a.loader(a.diffDir()),
		Metrics:   a.Metrics,
	}
	_, err = c.Run(ctx, targets, types, creds, collection.Options{AutoLoadDB: true}, bus)
	return err
}

// targetsFromInventory resolves every fingerprinted session in inv to a
// collection.Target, looking up device IDs against the devices table
// (falling back to the normalized session name when the device hasn't
// been persisted yet).
func targetsFromInventory(ctx context.Context, devices store.DeviceRepository, inv *inventory.File) ([]collection.Target, error) {
	var targets []collection.Target
	for _, entry := range inv.Devices() {
		s := entry.Session
		if !s.Fingerprinted {
			continue
		}
		deviceID := s.Name
		if d, err := devices.GetByNormalizedName(ctx, s.Name); err == nil {
			deviceID = d.ID
		}
		targets = append(targets, collection.Target{
			DeviceID:     deviceID,
			Hostname:     s.Name,
			ManagementIP: s.IP,
			Vendor:       vendor.FromString(s.Vendor),
		})
	}
	return targets, nil
}
