package models

import "time"

// Severity classifies how significant a detected capture change is.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeverityCritical Severity = "critical"
)

// CaptureCurrent holds the latest raw output for one (device, capture_type)
// pair. It is upserted on every load, success or failure (§4.5 step 7).
type CaptureCurrent struct {
	ID          string    `json:"id"`
	DeviceID    string    `json:"device_id"`
	CaptureType string    `json:"capture_type"`
	FilePath    string    `json:"file_path"`
	Size        int64     `json:"size"`
	ContentHash string    `json:"content_hash"`
	CapturedAt  time.Time `json:"captured_at"`
}

// CaptureSnapshot is an immutable, append-only record of one capture's
// content for a tracked capture type. Deduplicated by content hash (§3).
type CaptureSnapshot struct {
	ID          string    `json:"id"`
	DeviceID    string    `json:"device_id"`
	CaptureType string    `json:"capture_type"`
	CapturedAt  time.Time `json:"captured_at"`
	FilePath    string    `json:"file_path"`
	Content     string    `json:"content"`
	ContentHash string    `json:"content_hash"`
}

// CaptureChange records that two consecutive snapshots for (device,
// capture_type) differed. Immutable once inserted.
type CaptureChange struct {
	ID                  string    `json:"id"`
	DeviceID            string    `json:"device_id"`
	CaptureType         string    `json:"capture_type"`
	DetectedAt          time.Time `json:"detected_at"`
	PreviousSnapshotID  string    `json:"previous_snapshot_id,omitempty"`
	CurrentSnapshotID   string    `json:"current_snapshot_id"`
	LinesAdded          int       `json:"lines_added"`
	LinesRemoved        int       `json:"lines_removed"`
	DiffPath            string    `json:"diff_path"`
	Severity            Severity  `json:"severity"`
}
