package store

import (
	"context"
	"testing"
	"time"

	"github.com/velocitycmdb/velocitycmdb/pkg/models"
)

func newArpDB(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background(), "arp_cat", ArpCatMigrations()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func TestArpInsertBatchIsAppendOnly(t *testing.T) {
	db := newArpDB(t)
	repo := NewSQLiteArpRepository(db.DB())
	ctx := context.Background()
	now := time.Now().UTC()

	entries := []models.ArpEntry{
		{DeviceID: "dev1", IPAddress: "10.0.0.1", MACAddress: "aa:bb:cc:dd:ee:ff", CapturedAt: now},
		{DeviceID: "dev1", IPAddress: "10.0.0.1", MACAddress: "aa:bb:cc:dd:ee:ff", CapturedAt: now.Add(time.Hour)},
	}
	n, err := repo.InsertBatch(ctx, entries)
	if err != nil {
		t.Fatalf("InsertBatch() error = %v", err)
	}
	if n != 2 {
		t.Errorf("InsertBatch() inserted = %d, want 2 (append-only, no collapse across captures)", n)
	}

	got, err := repo.ByMAC(ctx, "aa:bb:cc:dd:ee:ff", 10)
	if err != nil {
		t.Fatalf("ByMAC() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ByMAC() = %d entries, want 2", len(got))
	}
}

func TestArpByIP(t *testing.T) {
	db := newArpDB(t)
	repo := NewSQLiteArpRepository(db.DB())
	ctx := context.Background()

	repo.InsertBatch(ctx, []models.ArpEntry{
		{DeviceID: "dev1", IPAddress: "10.0.0.5", MACAddress: "aa:bb:cc:dd:ee:01", CapturedAt: time.Now().UTC()},
	})

	got, err := repo.ByIP(ctx, "10.0.0.5", 10)
	if err != nil {
		t.Fatalf("ByIP() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ByIP() = %d, want 1", len(got))
	}
}
