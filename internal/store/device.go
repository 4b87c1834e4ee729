package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/velocitycmdb/velocitycmdb/pkg/models"
)

// DeviceFilter controls which devices List returns.
type DeviceFilter struct {
	DeviceType string
	SiteID     string
	Search     string // matches name or management_ip
}

// DeviceRepository provides CRUD access to network devices, keyed on
// the §3 invariant that normalized_name is the unique device identity.
type DeviceRepository interface {
	Get(ctx context.Context, id string) (*models.Device, error)
	GetByNormalizedName(ctx context.Context, normalizedName string) (*models.Device, error)
	List(ctx context.Context, filter DeviceFilter, opts ListOptions) (*ListResult[models.Device], error)
	// Upsert inserts a device or updates the existing row for the same
	// normalized_name, matching §3 "never deleted by the core" and C2/C5's
	// need to update an existing device in place.
	Upsert(ctx context.Context, device *models.Device) error
	Delete(ctx context.Context, id string) error
}

var _ DeviceRepository = (*SQLiteDeviceRepository)(nil)

// SQLiteDeviceRepository implements DeviceRepository against the devices
// table created by AssetsMigrations.
type SQLiteDeviceRepository struct {
	db *sql.DB
}

func NewSQLiteDeviceRepository(db *sql.DB) *SQLiteDeviceRepository {
	return &SQLiteDeviceRepository{db: db}
}

const deviceColumns = `id, name, normalized_name, management_ip, ipv4_address,
	vendor_id, site_id, role_id, device_type, model, software_version,
	serial, source_system, fingerprinted_at, created_at`

func (r *SQLiteDeviceRepository) Get(ctx context.Context, id string) (*models.Device, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE id = ?`, id)
	d, err := scanDevice(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get device %q: %w", id, err)
	}
	return d, nil
}

func (r *SQLiteDeviceRepository) GetByNormalizedName(ctx context.Context, normalizedName string) (*models.Device, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE normalized_name = ?`, normalizedName)
	d, err := scanDevice(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get device by normalized_name %q: %w", normalizedName, err)
	}
	return d, nil
}

func (r *SQLiteDeviceRepository) List(ctx context.Context, filter DeviceFilter, opts ListOptions) (*ListResult[models.Device], error) {
	opts = normalizeListOptions(opts)

	sortCol := "created_at"
	allowedSorts := map[string]string{
		"name":       "name",
		"created_at": "created_at",
		"device_type": "device_type",
	}
	if col, ok := allowedSorts[opts.SortBy]; ok {
		sortCol = col
	}

	where := "1=1"
	var args []any
	if filter.DeviceType != "" {
		where += " AND device_type = ?"
		args = append(args, filter.DeviceType)
	}
	if filter.SiteID != "" {
		where += " AND site_id = ?"
		args = append(args, filter.SiteID)
	}
	if filter.Search != "" {
		where += " AND (name LIKE ? OR management_ip LIKE ?)"
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}

	var total int
	//nolint:gosec // where uses parameterized placeholders only
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM devices WHERE "+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count devices: %w", err)
	}

	queryArgs := append(append([]any{}, args...), opts.Limit, opts.Offset)
	orderDir := "DESC"
	if opts.SortOrder == "asc" {
		orderDir = "ASC"
	}

	//nolint:gosec // where and sortCol are validated above, not user input
	query := fmt.Sprintf("SELECT %s FROM devices WHERE %s ORDER BY %s %s LIMIT ? OFFSET ?",
		deviceColumns, where, sortCol, orderDir)

	rows, err := r.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	devices := []models.Device{}
	for rows.Next() {
		d, err := scanDeviceRow(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate devices: %w", err)
	}

	return &ListResult[models.Device]{Items: devices, Total: total}, nil
}

func (r *SQLiteDeviceRepository) Upsert(ctx context.Context, device *models.Device) error {
	if device.ID == "" {
		device.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if device.Timestamp.IsZero() {
		device.Timestamp = now
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO devices (
			id, name, normalized_name, management_ip, ipv4_address,
			vendor_id, site_id, role_id, device_type, model, software_version,
			serial, source_system, fingerprinted_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(normalized_name) DO UPDATE SET
			name = excluded.name,
			management_ip = COALESCE(NULLIF(excluded.management_ip, ''), devices.management_ip),
			ipv4_address = COALESCE(NULLIF(excluded.ipv4_address, ''), devices.ipv4_address),
			vendor_id = COALESCE(NULLIF(excluded.vendor_id, ''), devices.vendor_id),
			site_id = COALESCE(NULLIF(excluded.site_id, ''), devices.site_id),
			role_id = COALESCE(NULLIF(excluded.role_id, ''), devices.role_id),
			device_type = COALESCE(NULLIF(excluded.device_type, ''), devices.device_type),
			model = COALESCE(NULLIF(excluded.model, ''), devices.model),
			software_version = COALESCE(NULLIF(excluded.software_version, ''), devices.software_version),
			serial = COALESCE(NULLIF(excluded.serial, ''), devices.serial),
			fingerprinted_at = COALESCE(excluded.fingerprinted_at, devices.fingerprinted_at)
	`,
		device.ID, device.Name, device.NormalizedName, device.ManagementIP, device.IPv4Address,
		device.VendorID, device.SiteID, device.RoleID, device.DeviceType, device.Model, device.SoftwareVersion,
		device.Serial, device.SourceSystem, timeOrNil(device.FingerprintedAt), device.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("upsert device: %w", err)
	}

	// ON CONFLICT DO UPDATE leaves the pre-existing row's ID untouched; fetch
	// it back so callers (which may have generated a fresh UUID above) see
	// the ID actually stored.
	existing, err := r.GetByNormalizedName(ctx, device.NormalizedName)
	if err != nil {
		return fmt.Errorf("reload upserted device: %w", err)
	}
	*device = *existing
	return nil
}

func (r *SQLiteDeviceRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete device: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func timeOrNil(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (*models.Device, error) {
	var d models.Device
	var managementIP, ipv4, vendorID, siteID, roleID, deviceType, model, swVersion, serial, source sql.NullString
	var fingerprintedAt sql.NullTime

	err := row.Scan(
		&d.ID, &d.Name, &d.NormalizedName, &managementIP, &ipv4,
		&vendorID, &siteID, &roleID, &deviceType, &model, &swVersion,
		&serial, &source, &fingerprintedAt, &d.Timestamp,
	)
	if err != nil {
		return nil, err
	}

	d.ManagementIP = managementIP.String
	d.IPv4Address = ipv4.String
	d.VendorID = vendorID.String
	d.SiteID = siteID.String
	d.RoleID = roleID.String
	d.DeviceType = deviceType.String
	d.Model = model.String
	d.SoftwareVersion = swVersion.String
	d.Serial = serial.String
	d.SourceSystem = source.String
	if fingerprintedAt.Valid {
		d.FingerprintedAt = fingerprintedAt.Time
	}
	return &d, nil
}

func scanDeviceRow(rows *sql.Rows) (*models.Device, error) {
	return scanDevice(rows)
}
