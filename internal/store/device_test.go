package store

import (
	"context"
	"testing"

	"github.com/velocitycmdb/velocitycmdb/pkg/models"
)

func newAssetsDB(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background(), "assets", AssetsMigrations()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

// seedDevice inserts a devices row with the given ID so rows that
// reference devices(id) satisfy the foreign key.
func seedDevice(t *testing.T, db *SQLiteStore, id string) {
	t.Helper()
	d := &models.Device{ID: id, Name: id, NormalizedName: id}
	if err := NewSQLiteDeviceRepository(db.DB()).Upsert(context.Background(), d); err != nil {
		t.Fatalf("seed device %q: %v", id, err)
	}
}

func TestDeviceUpsertInsertsNewRow(t *testing.T) {
	db := newAssetsDB(t)
	repo := NewSQLiteDeviceRepository(db.DB())

	d := &models.Device{Name: "SW1", NormalizedName: "sw1", ManagementIP: "10.0.0.1"}
	if err := repo.Upsert(context.Background(), d); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if d.ID == "" {
		t.Error("Upsert() left ID empty")
	}

	got, err := repo.GetByNormalizedName(context.Background(), "sw1")
	if err != nil {
		t.Fatalf("GetByNormalizedName() error = %v", err)
	}
	if got.ManagementIP != "10.0.0.1" {
		t.Errorf("ManagementIP = %q", got.ManagementIP)
	}
}

func TestDeviceUpsertUpdatesExistingByNormalizedName(t *testing.T) {
	db := newAssetsDB(t)
	repo := NewSQLiteDeviceRepository(db.DB())
	ctx := context.Background()

	first := &models.Device{Name: "SW1", NormalizedName: "sw1", ManagementIP: "10.0.0.1"}
	if err := repo.Upsert(ctx, first); err != nil {
		t.Fatalf("first Upsert() error = %v", err)
	}

	second := &models.Device{Name: "SW1", NormalizedName: "sw1", DeviceType: "cisco_ios", Model: "C3750"}
	if err := repo.Upsert(ctx, second); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second Upsert() ID = %q, want %q (same device)", second.ID, first.ID)
	}

	got, err := repo.GetByNormalizedName(ctx, "sw1")
	if err != nil {
		t.Fatalf("GetByNormalizedName() error = %v", err)
	}
	if got.DeviceType != "cisco_ios" || got.ManagementIP != "10.0.0.1" {
		t.Errorf("got = %+v, want device_type set and management_ip preserved", got)
	}
}

func TestDeviceGetMissingReturnsNotFound(t *testing.T) {
	db := newAssetsDB(t)
	repo := NewSQLiteDeviceRepository(db.DB())
	if _, err := repo.Get(context.Background(), "nope"); err != ErrNotFound {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestDeviceListFiltersByDeviceType(t *testing.T) {
	db := newAssetsDB(t)
	repo := NewSQLiteDeviceRepository(db.DB())
	ctx := context.Background()

	repo.Upsert(ctx, &models.Device{Name: "a", NormalizedName: "a", DeviceType: "cisco_ios"})
	repo.Upsert(ctx, &models.Device{Name: "b", NormalizedName: "b", DeviceType: "juniper_junos"})

	result, err := repo.List(ctx, DeviceFilter{DeviceType: "cisco_ios"}, ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 1 || len(result.Items) != 1 {
		t.Fatalf("List() = %+v, want 1 item", result)
	}
}
