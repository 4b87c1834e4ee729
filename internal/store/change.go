package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/velocitycmdb/velocitycmdb/pkg/models"
)

// ChangeRepository provides append-only access to capture_changes (§3, §4.4).
type ChangeRepository interface {
	Insert(ctx context.Context, c *models.CaptureChange) error
	ListByDevice(ctx context.Context, deviceID string, captureType string, limit int) ([]models.CaptureChange, error)
	// SearchContent runs an FTS5 query against snapshot content, returning
	// matching (device_id, capture_type) pairs (§4.4 "search across all
	// snapshot content").
	SearchContent(ctx context.Context, query string, limit int) ([]ContentMatch, error)
}

// ContentMatch is one FTS5 hit against capture_fts.
type ContentMatch struct {
	DeviceID    string
	CaptureType string
	Snippet     string
}

var _ ChangeRepository = (*SQLiteChangeRepository)(nil)

type SQLiteChangeRepository struct {
	db *sql.DB
}

func NewSQLiteChangeRepository(db *sql.DB) *SQLiteChangeRepository {
	return &SQLiteChangeRepository{db: db}
}

const changeColumns = `id, device_id, capture_type, detected_at, previous_snapshot_id,
	current_snapshot_id, lines_added, lines_removed, diff_path, severity`

func (r *SQLiteChangeRepository) Insert(ctx context.Context, c *models.CaptureChange) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	var prev any
	if c.PreviousSnapshotID != "" {
		prev = c.PreviousSnapshotID
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO capture_changes (
			id, device_id, capture_type, detected_at, previous_snapshot_id,
			current_snapshot_id, lines_added, lines_removed, diff_path, severity
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.DeviceID, c.CaptureType, c.DetectedAt, prev,
		c.CurrentSnapshotID, c.LinesAdded, c.LinesRemoved, c.DiffPath, string(c.Severity),
	)
	if err != nil {
		return fmt.Errorf("insert capture change: %w", err)
	}
	return nil
}

func (r *SQLiteChangeRepository) ListByDevice(ctx context.Context, deviceID string, captureType string, limit int) ([]models.CaptureChange, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+changeColumns+` FROM capture_changes
		WHERE device_id = ? AND capture_type = ?
		ORDER BY detected_at DESC LIMIT ?
	`, deviceID, captureType, limit)
	if err != nil {
		return nil, fmt.Errorf("list capture changes: %w", err)
	}
	defer rows.Close()

	changes := []models.CaptureChange{}
	for rows.Next() {
		var c models.CaptureChange
		var prev sql.NullString
		var severity string
		if err := rows.Scan(&c.ID, &c.DeviceID, &c.CaptureType, &c.DetectedAt, &prev,
			&c.CurrentSnapshotID, &c.LinesAdded, &c.LinesRemoved, &c.DiffPath, &severity); err != nil {
			return nil, err
		}
		c.PreviousSnapshotID = prev.String
		c.Severity = models.Severity(severity)
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

func (r *SQLiteChangeRepository) SearchContent(ctx context.Context, query string, limit int) ([]ContentMatch, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT device_id, capture_type, snippet(capture_fts, 0, '[', ']', '...', 16)
		FROM capture_fts WHERE capture_fts MATCH ? LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search capture content: %w", err)
	}
	defer rows.Close()

	matches := []ContentMatch{}
	for rows.Next() {
		var m ContentMatch
		if err := rows.Scan(&m.DeviceID, &m.CaptureType, &m.Snippet); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
