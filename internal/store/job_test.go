package store

import (
	"context"
	"testing"
	"time"
)

func newJobsDB(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background(), "jobs", JobsMigrations()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func TestJobUpsertInsertsAndUpdatesByName(t *testing.T) {
	db := newJobsDB(t)
	repo := NewSQLiteJobRepository(db.DB())
	ctx := context.Background()

	j := &JobRecord{Name: "nightly-collect", Kind: "collect", Schedule: "24h", Enabled: true}
	if err := repo.Upsert(ctx, j); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if j.ID == "" {
		t.Fatal("Upsert() did not assign an ID")
	}

	j2 := &JobRecord{Name: "nightly-collect", Kind: "collect", Schedule: "12h", Enabled: false}
	if err := repo.Upsert(ctx, j2); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}

	got, err := repo.GetByName(ctx, "nightly-collect")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if got.Schedule != "12h" || got.Enabled {
		t.Errorf("GetByName() = %+v, want updated schedule and disabled", got)
	}
}

func TestJobSetEnabledAndTouchLastRun(t *testing.T) {
	db := newJobsDB(t)
	repo := NewSQLiteJobRepository(db.DB())
	ctx := context.Background()

	j := &JobRecord{Name: "discover-hq", Kind: "discover", Enabled: true}
	if err := repo.Upsert(ctx, j); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if err := repo.SetEnabled(ctx, j.ID, false); err != nil {
		t.Fatalf("SetEnabled() error = %v", err)
	}
	now := time.Now().UTC().Truncate(time.Second)
	if err := repo.TouchLastRun(ctx, j.ID, now); err != nil {
		t.Fatalf("TouchLastRun() error = %v", err)
	}

	got, err := repo.Get(ctx, j.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Enabled {
		t.Error("Enabled = true, want false after SetEnabled(false)")
	}
	if !got.LastRunAt.Equal(now) {
		t.Errorf("LastRunAt = %v, want %v", got.LastRunAt, now)
	}
}

func TestJobDeleteMissingReturnsNotFound(t *testing.T) {
	db := newJobsDB(t)
	repo := NewSQLiteJobRepository(db.DB())

	if err := repo.Delete(context.Background(), "no-such-id"); err != ErrNotFound {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestJobListOrdersByCreation(t *testing.T) {
	db := newJobsDB(t)
	repo := NewSQLiteJobRepository(db.DB())
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		if err := repo.Upsert(ctx, &JobRecord{Name: name, Kind: "collect"}); err != nil {
			t.Fatalf("Upsert(%s) error = %v", name, err)
		}
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("List() returned %d jobs, want 3", len(list))
	}
}
