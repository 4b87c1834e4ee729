package store

import (
	"context"
	"testing"
	"time"

	"github.com/velocitycmdb/velocitycmdb/pkg/models"
)

func TestCaptureCurrentUpsertOverwritesPreviousRow(t *testing.T) {
	db := newAssetsDB(t)
	seedDevice(t, db, "dev1")
	repo := NewSQLiteCaptureCurrentRepository(db.DB())
	ctx := context.Background()

	first := &models.CaptureCurrent{DeviceID: "dev1", CaptureType: "configs", FilePath: "a.txt", Size: 10, ContentHash: "h1", CapturedAt: time.Now().UTC()}
	if err := repo.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	second := &models.CaptureCurrent{DeviceID: "dev1", CaptureType: "configs", FilePath: "b.txt", Size: 20, ContentHash: "h2", CapturedAt: time.Now().UTC().Add(time.Hour)}
	if err := repo.Upsert(ctx, second); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}

	got, err := repo.Get(ctx, "dev1", "configs")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ContentHash != "h2" || got.FilePath != "b.txt" {
		t.Errorf("Get() = %+v, want latest values", got)
	}
}

func TestCaptureCurrentGetMissingReturnsNotFound(t *testing.T) {
	db := newAssetsDB(t)
	repo := NewSQLiteCaptureCurrentRepository(db.DB())
	if _, err := repo.Get(context.Background(), "dev1", "configs"); err != ErrNotFound {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}
