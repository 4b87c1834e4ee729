package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/velocitycmdb/velocitycmdb/pkg/models"
)

// ComponentRepository provides access to device components (§6), keyed by
// (device_id, name, position).
type ComponentRepository interface {
	ListByDevice(ctx context.Context, deviceID string) ([]models.Component, error)
	// Upsert inserts or replaces a component keyed by (device_id, name,
	// position), as C5 does on every inventory-capture load.
	Upsert(ctx context.Context, c *models.Component) error
	// DeleteByDevice removes every component for deviceID, used by the
	// inventory loader before it writes a device's fresh component set.
	DeleteByDevice(ctx context.Context, deviceID string) error
	// UpdateType rewrites the Type/Subtype of a single component, used by
	// the reclassification batch operation.
	UpdateType(ctx context.Context, id string, componentType models.ComponentType, subtype string) error
	ListUnknownType(ctx context.Context, limit int) ([]models.Component, error)
}

var _ ComponentRepository = (*SQLiteComponentRepository)(nil)

type SQLiteComponentRepository struct {
	db *sql.DB
}

func NewSQLiteComponentRepository(db *sql.DB) *SQLiteComponentRepository {
	return &SQLiteComponentRepository{db: db}
}

const componentColumns = `id, device_id, name, description, serial, position,
	type, subtype, have_sn, extraction_source, extraction_confidence`

func (r *SQLiteComponentRepository) ListByDevice(ctx context.Context, deviceID string) ([]models.Component, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+componentColumns+` FROM components WHERE device_id = ? ORDER BY position`, deviceID)
	if err != nil {
		return nil, fmt.Errorf("list components for device %q: %w", deviceID, err)
	}
	defer rows.Close()

	components := []models.Component{}
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, err
		}
		components = append(components, *c)
	}
	return components, rows.Err()
}

func (r *SQLiteComponentRepository) Upsert(ctx context.Context, c *models.Component) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO components (
			id, device_id, name, description, serial, position,
			type, subtype, have_sn, extraction_source, extraction_confidence
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(device_id, name, position) DO UPDATE SET
			description = excluded.description,
			serial = excluded.serial,
			type = excluded.type,
			subtype = excluded.subtype,
			have_sn = excluded.have_sn,
			extraction_source = excluded.extraction_source,
			extraction_confidence = excluded.extraction_confidence
	`,
		c.ID, c.DeviceID, c.Name, c.Description, c.Serial, c.Position,
		string(c.Type), c.Subtype, c.HaveSN, c.ExtractionSource, c.ExtractionConfidence,
	)
	if err != nil {
		return fmt.Errorf("upsert component: %w", err)
	}
	return nil
}

func (r *SQLiteComponentRepository) DeleteByDevice(ctx context.Context, deviceID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM components WHERE device_id = ?`, deviceID)
	if err != nil {
		return fmt.Errorf("delete components for device %q: %w", deviceID, err)
	}
	return nil
}

func (r *SQLiteComponentRepository) UpdateType(ctx context.Context, id string, componentType models.ComponentType, subtype string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE components SET type = ?, subtype = ? WHERE id = ?`, string(componentType), subtype, id)
	if err != nil {
		return fmt.Errorf("update component type %q: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteComponentRepository) ListUnknownType(ctx context.Context, limit int) ([]models.Component, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+componentColumns+` FROM components WHERE type = ? LIMIT ?`, string(models.ComponentUnknown), limit)
	if err != nil {
		return nil, fmt.Errorf("list unknown-type components: %w", err)
	}
	defer rows.Close()

	components := []models.Component{}
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, err
		}
		components = append(components, *c)
	}
	return components, rows.Err()
}

func scanComponent(rows *sql.Rows) (*models.Component, error) {
	var c models.Component
	var description, serial, position, subtype, extractionSource sql.NullString
	var confidence sql.NullFloat64
	var componentType string

	err := rows.Scan(
		&c.ID, &c.DeviceID, &c.Name, &description, &serial, &position,
		&componentType, &subtype, &c.HaveSN, &extractionSource, &confidence,
	)
	if err != nil {
		return nil, err
	}

	c.Description = description.String
	c.Serial = serial.String
	c.Position = position.String
	c.Type = models.ComponentType(componentType)
	c.Subtype = subtype.String
	c.ExtractionSource = extractionSource.String
	c.ExtractionConfidence = confidence.Float64
	return &c, nil
}
