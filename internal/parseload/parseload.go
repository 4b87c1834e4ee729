// Package parseload implements the parse-and-load layer (§4.5): translate
// raw textual command output captured by collection into normalized
// database rows, using the template-scored extraction engine and the
// vendor-agnostic field priority lists.
package parseload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/velocitycmdb/velocitycmdb/internal/catalog"
	"github.com/velocitycmdb/velocitycmdb/internal/changearchive"
	"github.com/velocitycmdb/velocitycmdb/internal/fieldmap"
	"github.com/velocitycmdb/velocitycmdb/internal/netnorm"
	"github.com/velocitycmdb/velocitycmdb/internal/store"
	"github.com/velocitycmdb/velocitycmdb/internal/templatedb"
	"github.com/velocitycmdb/velocitycmdb/internal/vendor"
	"github.com/velocitycmdb/velocitycmdb/pkg/models"
)

// Thresholds holds the minimum template score required per capture type
// before a parse is accepted (§4.2: "empirically 20 for fingerprint;
// 25-30 for ARP parsing").
type Thresholds struct {
	Default int
	PerType map[catalog.Type]int
}

// DefaultThresholds matches the documented empirical values.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Default: 20,
		PerType: map[catalog.Type]int{
			catalog.TypeARP: 25,
			catalog.TypeMAC: 25,
		},
	}
}

func (t Thresholds) For(ct catalog.Type) int {
	if v, ok := t.PerType[ct]; ok {
		return v
	}
	if t.Default > 0 {
		return t.Default
	}
	return 20
}

// FailureReason records why one capture file failed to load, for operator
// inspection (§4.5 "failure semantics").
type FailureReason struct {
	File         string
	Vendor       vendor.Vendor
	BestScore    int
	BestTemplate string
	Reason       string
}

// LoadReport summarizes one batch run over a capture type's directory.
type LoadReport struct {
	FilesProcessed int
	EntriesLoaded  int
	FilesFailed    int
	Reasons        []FailureReason
}

// DeviceResolver maps a capture file's hostname (the normalized device
// name) to the device's ID and known vendor.
type DeviceResolver interface {
	Resolve(ctx context.Context, normalizedName string) (deviceID string, v vendor.Vendor, found bool)
}

// StoreDeviceResolver resolves against the devices table, deriving vendor
// from the stored device_type string.
type StoreDeviceResolver struct {
	Devices store.DeviceRepository
}

func (r StoreDeviceResolver) Resolve(ctx context.Context, normalizedName string) (string, vendor.Vendor, bool) {
	d, err := r.Devices.GetByNormalizedName(ctx, normalizedName)
	if err != nil {
		return "", vendor.Unknown, false
	}
	return d.ID, vendor.FromString(d.DeviceType), true
}

// Loader wires the template engine, field priority chains, and repositories
// together into the per-capture-type load pipeline (§4.5 steps 1-7).
type Loader struct {
	Templates     *templatedb.Database
	Devices       DeviceResolver
	Components    store.ComponentRepository
	Arp           store.ArpRepository
	Current       store.CaptureCurrentRepository
	Snapshots     store.SnapshotRepository
	Changes       store.ChangeRepository
	DiffDir       string
	SeverityRules changearchive.SeverityRules
	Thresholds    Thresholds
}

// Load discovers capture files under outputDir/{captureType}/ and loads
// each one (§4.5 step 1). A missing directory is not an error; it means
// nothing of that type has been collected yet.
func (l *Loader) Load(ctx context.Context, outputDir string, captureType catalog.Type) (*LoadReport, error) {
	dir := filepath.Join(outputDir, string(captureType))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return &LoadReport{}, nil
		}
		return nil, fmt.Errorf("read capture dir %q: %w", dir, err)
	}

	report := &LoadReport{}
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		report.FilesProcessed++
		if err := l.loadFile(ctx, filepath.Join(dir, de.Name()), de.Name(), captureType, report); err != nil {
			return report, err
		}
	}
	return report, nil
}

func (l *Loader) loadFile(ctx context.Context, path, filename string, captureType catalog.Type, report *LoadReport) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read capture file %q: %w", path, err)
	}

	hostname := strings.TrimSuffix(filename, filepath.Ext(filename))
	deviceID, v, found := l.Devices.Resolve(ctx, hostname)
	if !found {
		report.FilesFailed++
		report.Reasons = append(report.Reasons, FailureReason{File: filename, Reason: "unknown device " + hostname})
		return nil
	}

	if l.Current != nil {
		sum := sha256.Sum256(content)
		cc := &models.CaptureCurrent{
			DeviceID:    deviceID,
			CaptureType: string(captureType),
			FilePath:    path,
			Size:        int64(len(content)),
			ContentHash: hex.EncodeToString(sum[:]),
			CapturedAt:  time.Now().UTC(),
		}
		if err := l.Current.Upsert(ctx, cc); err != nil {
			return fmt.Errorf("upsert current capture: %w", err)
		}
	}

	cmd, _ := catalog.CommandFor(captureType, v)
	filterList := l.Templates.FilterList(v, cmd)
	result, err := l.Templates.BestMatch(string(content), filterList, l.Thresholds.For(captureType))
	if err != nil {
		report.FilesFailed++
		report.Reasons = append(report.Reasons, FailureReason{
			File: filename, Vendor: v, BestTemplate: result.TemplateName, BestScore: result.Score, Reason: err.Error(),
		})
		return nil
	}

	loaded, err := l.applyFields(ctx, deviceID, captureType, result)
	if err != nil {
		return err
	}
	report.EntriesLoaded += loaded

	if entry, ok := catalog.Catalog[captureType]; ok && entry.Tracked && l.Snapshots != nil && l.Changes != nil {
		if _, err := changearchive.Process(ctx, l.Snapshots, l.Changes, deviceID, captureType, content, l.DiffDir, l.SeverityRules); err != nil {
			return fmt.Errorf("change archive: %w", err)
		}
	}
	return nil
}

func (l *Loader) applyFields(ctx context.Context, deviceID string, captureType catalog.Type, result templatedb.ScoredResult) (int, error) {
	switch captureType {
	case catalog.TypeInventory:
		return l.loadComponents(ctx, deviceID, result)
	case catalog.TypeARP:
		return l.loadArp(ctx, deviceID, "arp", result)
	case catalog.TypeMAC:
		return l.loadArp(ctx, deviceID, "mac", result)
	default:
		// configs/version feed the change-detection archive only; they have
		// no normalized table of their own (§4.4 tracked set).
		return 0, nil
	}
}

var componentNameChain = fieldmap.Chain{Candidates: []string{"name", "component_name"}}
var componentDescChain = fieldmap.Chain{Candidates: []string{"description", "descr"}}
var componentPositionChain = fieldmap.Chain{Candidates: []string{"position", "slot"}}

// loadComponents replaces a device's components on every inventory load
// (§4.5 "components replace-by-device for inventory"), keyed by
// (device_id, name, position).
func (l *Loader) loadComponents(ctx context.Context, deviceID string, result templatedb.ScoredResult) (int, error) {
	names := componentNameChain.ResolveAll(result.Fields)
	if len(names) == 0 {
		return 0, nil
	}
	if err := l.Components.DeleteByDevice(ctx, deviceID); err != nil {
		return 0, fmt.Errorf("replace components: %w", err)
	}
	descs := componentDescChain.ResolveAll(result.Fields)
	serials := fieldmap.ComponentSerial.ResolveAll(result.Fields)
	positions := componentPositionChain.ResolveAll(result.Fields)

	loaded := 0
	for i, name := range names {
		serial := valueAt(serials, i)
		position := valueAt(positions, i)
		if position == "" {
			position = fmt.Sprintf("%d", i)
		}
		c := &models.Component{
			DeviceID:             deviceID,
			Name:                 name,
			Description:          valueAt(descs, i),
			Serial:               serial,
			Position:             position,
			Type:                 models.ComponentUnknown,
			HaveSN:               serial != "",
			ExtractionSource:     result.TemplateName,
			ExtractionConfidence: confidenceFromScore(result.Score),
		}
		if err := l.Components.Upsert(ctx, c); err != nil {
			return loaded, fmt.Errorf("upsert component: %w", err)
		}
		loaded++
	}
	return loaded, nil
}

var macChain = fieldmap.Chain{Candidates: []string{"mac_address", "hardware_addr"}}
var ipChain = fieldmap.Chain{Candidates: []string{"ip_address", "address"}}
var ifaceChain = fieldmap.Chain{Candidates: []string{"interface", "port"}}

// loadArp extracts ARP/MAC-table sightings, collapsing duplicates within
// this single capture (§4.5 "Deduplication"); history across captures is
// preserved by InsertBatch's append-only semantics.
func (l *Loader) loadArp(ctx context.Context, deviceID, entryType string, result templatedb.ScoredResult) (int, error) {
	macs := macChain.ResolveAll(result.Fields)
	ips := ipChain.ResolveAll(result.Fields)
	ifaces := ifaceChain.ResolveAll(result.Fields)

	now := time.Now().UTC()
	seen := make(map[string]struct{})
	var entries []models.ArpEntry
	for i, raw := range macs {
		mac, err := netnorm.NormalizeMAC(raw)
		if err != nil {
			continue
		}
		ip := valueAt(ips, i)
		if ip != "" {
			if norm, err := netnorm.NormalizeIP(ip); err == nil {
				ip = norm
			}
		}
		key := ip + "|" + mac
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		entries = append(entries, models.ArpEntry{
			DeviceID:   deviceID,
			IPAddress:  ip,
			MACAddress: mac,
			Interface:  valueAt(ifaces, i),
			EntryType:  entryType,
			CapturedAt: now,
		})
	}
	if len(entries) == 0 {
		return 0, nil
	}
	return l.Arp.InsertBatch(ctx, entries)
}

func valueAt(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

func confidenceFromScore(score int) float64 {
	c := float64(score) / 100
	if c > 1 {
		c = 1
	}
	return c
}
