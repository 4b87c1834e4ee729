package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/velocitycmdb/velocitycmdb/pkg/models"
)

// CaptureCurrentRepository provides single-row-per-(device,type) access to
// the latest raw capture, upserted on every load regardless of parse
// success (§4.5 step 7).
type CaptureCurrentRepository interface {
	Upsert(ctx context.Context, c *models.CaptureCurrent) error
	Get(ctx context.Context, deviceID, captureType string) (*models.CaptureCurrent, error)
}

var _ CaptureCurrentRepository = (*SQLiteCaptureCurrentRepository)(nil)

type SQLiteCaptureCurrentRepository struct {
	db *sql.DB
}

func NewSQLiteCaptureCurrentRepository(db *sql.DB) *SQLiteCaptureCurrentRepository {
	return &SQLiteCaptureCurrentRepository{db: db}
}

func (r *SQLiteCaptureCurrentRepository) Upsert(ctx context.Context, c *models.CaptureCurrent) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO captures_current (id, device_id, capture_type, file_path, size, content_hash, captured_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(device_id, capture_type) DO UPDATE SET
			file_path = excluded.file_path,
			size = excluded.size,
			content_hash = excluded.content_hash,
			captured_at = excluded.captured_at
	`, c.ID, c.DeviceID, c.CaptureType, c.FilePath, c.Size, c.ContentHash, c.CapturedAt)
	if err != nil {
		return fmt.Errorf("upsert captures_current: %w", err)
	}
	return nil
}

func (r *SQLiteCaptureCurrentRepository) Get(ctx context.Context, deviceID, captureType string) (*models.CaptureCurrent, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, device_id, capture_type, file_path, size, content_hash, captured_at
		FROM captures_current WHERE device_id = ? AND capture_type = ?
	`, deviceID, captureType)

	var c models.CaptureCurrent
	if err := row.Scan(&c.ID, &c.DeviceID, &c.CaptureType, &c.FilePath, &c.Size, &c.ContentHash, &c.CapturedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get captures_current: %w", err)
	}
	return &c, nil
}
