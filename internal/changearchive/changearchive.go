// Package changearchive implements the change-detection archive (§4.4):
// for each newly captured file of a tracked type, decide whether it
// represents a change, and if so persist an immutable snapshot and change
// record with a unified diff.
package changearchive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/velocitycmdb/velocitycmdb/internal/catalog"
	"github.com/velocitycmdb/velocitycmdb/internal/difflib"
	"github.com/velocitycmdb/velocitycmdb/internal/store"
	"github.com/velocitycmdb/velocitycmdb/pkg/models"
)

// SeverityRules externalizes the severity thresholds (REDESIGN FLAGS #2)
// instead of baking them in as constants.
type SeverityRules struct {
	ConfigsCriticalLines   int
	InventoryCriticalLines int
}

// DefaultSeverityRules matches the documented severity table.
func DefaultSeverityRules() SeverityRules {
	return SeverityRules{ConfigsCriticalLines: 50, InventoryCriticalLines: 5}
}

// ChangeResult reports what Process did for one capture.
type ChangeResult struct {
	Baseline bool // true if this was the first snapshot for (device, type)
	Changed  bool // true if a new snapshot + change record were inserted
	Change   *models.CaptureChange
}

// Process runs the decision procedure in §4.4 steps 1-6 for one freshly
// captured file's content.
func Process(ctx context.Context, snapshots store.SnapshotRepository, changes store.ChangeRepository, deviceID string, captureType catalog.Type, content []byte, diffDir string, rules SeverityRules) (*ChangeResult, error) {
	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])

	prev, err := snapshots.Latest(ctx, deviceID, string(captureType))
	if err != nil && err != store.ErrNotFound {
		return nil, fmt.Errorf("lookup latest snapshot: %w", err)
	}

	now := time.Now().UTC()
	snap := &models.CaptureSnapshot{
		DeviceID:    deviceID,
		CaptureType: string(captureType),
		CapturedAt:  now,
		FilePath:    "",
		Content:     string(content),
		ContentHash: hash,
	}

	if err == store.ErrNotFound {
		if err := snapshots.Insert(ctx, snap); err != nil {
			return nil, fmt.Errorf("insert baseline snapshot: %w", err)
		}
		return &ChangeResult{Baseline: true}, nil
	}

	if prev.ContentHash == hash {
		return &ChangeResult{}, nil
	}

	if err := snapshots.Insert(ctx, snap); err != nil {
		if err == store.ErrAlreadyExists {
			return &ChangeResult{}, nil
		}
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}

	diff := difflib.Unified(prev.FilePath, prev.Content, snap.FilePath, snap.Content)
	diffPath, err := writeDiffFile(diffDir, deviceID, string(captureType), now, diff.Text)
	if err != nil {
		return nil, fmt.Errorf("write diff file: %w", err)
	}

	change := &models.CaptureChange{
		DeviceID:           deviceID,
		CaptureType:        string(captureType),
		DetectedAt:         now,
		PreviousSnapshotID: prev.ID,
		CurrentSnapshotID:  snap.ID,
		LinesAdded:         diff.LinesAdded,
		LinesRemoved:       diff.LinesRemoved,
		DiffPath:           diffPath,
		Severity:           Classify(rules, captureType, diff.LinesAdded, diff.LinesRemoved),
	}
	if err := changes.Insert(ctx, change); err != nil {
		return nil, fmt.Errorf("insert change record: %w", err)
	}

	return &ChangeResult{Changed: true, Change: change}, nil
}

// Classify applies the severity table in documented rule order.
func Classify(rules SeverityRules, captureType catalog.Type, added, removed int) models.Severity {
	total := added + removed
	switch {
	case captureType == catalog.TypeVersion && total > 0:
		return models.SeverityCritical
	case captureType == catalog.TypeConfigs && total > rules.ConfigsCriticalLines:
		return models.SeverityCritical
	case captureType == catalog.TypeInventory && total > rules.InventoryCriticalLines:
		return models.SeverityCritical
	case captureType == catalog.TypeConfigs:
		return models.SeverityModerate
	case captureType == catalog.TypeInventory:
		return models.SeverityModerate
	default:
		return models.SeverityMinor
	}
}

func writeDiffFile(baseDir, deviceID, captureType string, ts time.Time, text string) (string, error) {
	dir := filepath.Join(baseDir, deviceID, captureType)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := ts.Format("20060102_150405") + ".diff"
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
