package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/velocitycmdb/velocitycmdb/pkg/models"
)

// SnapshotRepository provides append-only access to capture_snapshots (§3,
// §4.4). A snapshot exists for (device, type, hash) at most once.
type SnapshotRepository interface {
	// Latest returns the most recent snapshot for (deviceID, captureType),
	// or ErrNotFound if none exists yet (the "first snapshot" case, §3
	// invariant 4).
	Latest(ctx context.Context, deviceID string, captureType string) (*models.CaptureSnapshot, error)
	// Insert appends a new snapshot. Returns ErrAlreadyExists (no row
	// inserted) if (device_id, capture_type, content_hash) already exists
	// (§3 invariant 3, the dedup-by-hash law).
	Insert(ctx context.Context, s *models.CaptureSnapshot) error
}

var _ SnapshotRepository = (*SQLiteSnapshotRepository)(nil)

type SQLiteSnapshotRepository struct {
	db *sql.DB
}

func NewSQLiteSnapshotRepository(db *sql.DB) *SQLiteSnapshotRepository {
	return &SQLiteSnapshotRepository{db: db}
}

const snapshotColumns = `id, device_id, capture_type, captured_at, file_path, content, content_hash`

func (r *SQLiteSnapshotRepository) Latest(ctx context.Context, deviceID string, captureType string) (*models.CaptureSnapshot, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+` FROM capture_snapshots
		WHERE device_id = ? AND capture_type = ?
		ORDER BY captured_at DESC LIMIT 1
	`, deviceID, captureType)

	var s models.CaptureSnapshot
	err := row.Scan(&s.ID, &s.DeviceID, &s.CaptureType, &s.CapturedAt, &s.FilePath, &s.Content, &s.ContentHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("latest snapshot for %q/%q: %w", deviceID, captureType, err)
	}
	return &s, nil
}

func (r *SQLiteSnapshotRepository) Insert(ctx context.Context, s *models.CaptureSnapshot) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO capture_snapshots (id, device_id, capture_type, captured_at, file_path, content, content_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.DeviceID, s.CaptureType, s.CapturedAt, s.FilePath, s.Content, s.ContentHash)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

func isUniqueConstraintErr(err error) bool {
	return err != nil && strings.Contains(strings.ToUpper(err.Error()), "UNIQUE CONSTRAINT")
}
