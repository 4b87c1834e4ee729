package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/velocitycmdb/velocitycmdb/pkg/models"
)

// ArpRepository provides append-only access to ARP sightings (§3, §4.5).
type ArpRepository interface {
	// InsertBatch appends every entry as given; it does not collapse
	// duplicate (device_id, context, ip, mac) tuples. The loader collapses
	// them before calling InsertBatch.
	InsertBatch(ctx context.Context, entries []models.ArpEntry) (int, error)
	ByMAC(ctx context.Context, mac string, limit int) ([]models.ArpEntry, error)
	ByIP(ctx context.Context, ip string, limit int) ([]models.ArpEntry, error)
}

var _ ArpRepository = (*SQLiteArpRepository)(nil)

type SQLiteArpRepository struct {
	db *sql.DB
}

func NewSQLiteArpRepository(db *sql.DB) *SQLiteArpRepository {
	return &SQLiteArpRepository{db: db}
}

const arpColumns = `id, device_id, context_id, context, ip_address, mac_address, interface, entry_type, captured_at`

func (r *SQLiteArpRepository) InsertBatch(ctx context.Context, entries []models.ArpEntry) (int, error) {
	inserted := 0
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO arp_entries (id, device_id, context_id, context, ip_address, mac_address, interface, entry_type, captured_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("prepare arp insert: %w", err)
		}
		defer stmt.Close()

		for _, e := range entries {
			if e.ID == "" {
				e.ID = uuid.New().String()
			}
			if _, err := stmt.ExecContext(ctx, e.ID, e.DeviceID, e.ContextID, e.Context, e.IPAddress, e.MACAddress, e.Interface, e.EntryType, e.CapturedAt); err != nil {
				return fmt.Errorf("insert arp entry: %w", err)
			}
			inserted++
		}
		return nil
	})
	return inserted, err
}

func (r *SQLiteArpRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *SQLiteArpRepository) ByMAC(ctx context.Context, mac string, limit int) ([]models.ArpEntry, error) {
	return r.query(ctx, `SELECT `+arpColumns+` FROM arp_entries WHERE mac_address = ? ORDER BY captured_at DESC LIMIT ?`, mac, limit)
}

func (r *SQLiteArpRepository) ByIP(ctx context.Context, ip string, limit int) ([]models.ArpEntry, error) {
	return r.query(ctx, `SELECT `+arpColumns+` FROM arp_entries WHERE ip_address = ? ORDER BY captured_at DESC LIMIT ?`, ip, limit)
}

func (r *SQLiteArpRepository) query(ctx context.Context, query string, args ...any) ([]models.ArpEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query arp entries: %w", err)
	}
	defer rows.Close()

	entries := []models.ArpEntry{}
	for rows.Next() {
		var e models.ArpEntry
		var contextID, context, iface, entryType sql.NullString
		if err := rows.Scan(&e.ID, &e.DeviceID, &contextID, &context, &e.IPAddress, &e.MACAddress, &iface, &entryType, &e.CapturedAt); err != nil {
			return nil, err
		}
		e.ContextID = contextID.String
		e.Context = context.String
		e.Interface = iface.String
		e.EntryType = entryType.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
