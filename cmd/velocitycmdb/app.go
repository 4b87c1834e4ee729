// velocitycmdb is the CLI and web-server entry point (§6 "CLI surface").
// Subcommands share one bootstrap: open the three named databases, apply
// their migrations, and wire the repositories every subcommand needs.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/velocitycmdb/velocitycmdb/internal/catalog"
	"github.com/velocitycmdb/velocitycmdb/internal/changearchive"
	"github.com/velocitycmdb/velocitycmdb/internal/config"
	"github.com/velocitycmdb/velocitycmdb/internal/jobs"
	"github.com/velocitycmdb/velocitycmdb/internal/metrics"
	"github.com/velocitycmdb/velocitycmdb/internal/parseload"
	"github.com/velocitycmdb/velocitycmdb/internal/sshclient"
	"github.com/velocitycmdb/velocitycmdb/internal/store"
	"github.com/velocitycmdb/velocitycmdb/internal/templatedb"
)

// exit codes shared by every subcommand (§6).
const (
	exitOK           = 0
	exitPartial      = 1
	exitTotalFailure = 2
)

// app bundles the three named databases and the components every
// subcommand assembles its own workflow from.
type app struct {
	Config *config.Config
	Logger *zap.Logger

	Assets *store.SQLiteStore
	ArpCat *store.SQLiteStore
	Users  *store.SQLiteStore

	Devices    store.DeviceRepository
	Components store.ComponentRepository
	Arp        store.ArpRepository
	Snapshots  store.SnapshotRepository
	Changes    store.ChangeRepository
	Current    store.CaptureCurrentRepository
	JobRecords store.JobRepository

	Templates *templatedb.Database
	Dialer    sshclient.Dialer
	Registry  *jobs.Registry
	Metrics   *metrics.Metrics
}

// openApp opens every database under cfg.DataDir(), migrates them, and
// wires the repositories. Callers must call (*app).Close.
func openApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dataDir, err)
	}

	assets, err := store.New(filepath.Join(dataDir, "assets.db"))
	if err != nil {
		return nil, fmt.Errorf("open assets.db: %w", err)
	}
	if err := assets.Migrate(context.Background(), "assets", store.AssetsMigrations()); err != nil {
		assets.Close()
		return nil, fmt.Errorf("migrate assets.db: %w", err)
	}

	arpCat, err := store.New(filepath.Join(dataDir, "arp_cat.db"))
	if err != nil {
		assets.Close()
		return nil, fmt.Errorf("open arp_cat.db: %w", err)
	}
	if err := arpCat.Migrate(context.Background(), "arp_cat", store.ArpCatMigrations()); err != nil {
		assets.Close()
		arpCat.Close()
		return nil, fmt.Errorf("migrate arp_cat.db: %w", err)
	}

	users, err := store.New(filepath.Join(dataDir, "users.db"))
	if err != nil {
		assets.Close()
		arpCat.Close()
		return nil, fmt.Errorf("open users.db: %w", err)
	}
	if err := users.Migrate(context.Background(), "users", store.UsersMigrations()); err != nil {
		assets.Close()
		arpCat.Close()
		users.Close()
		return nil, fmt.Errorf("migrate users.db: %w", err)
	}
	if err := assets.Migrate(context.Background(), "jobs", store.JobsMigrations()); err != nil {
		assets.Close()
		arpCat.Close()
		users.Close()
		return nil, fmt.Errorf("migrate jobs tables: %w", err)
	}

	a := &app{
		Config: cfg,
		Logger: logger,
		Assets: assets,
		ArpCat: arpCat,
		Users:  users,

		Devices:    store.NewSQLiteDeviceRepository(assets.DB()),
		Components: store.NewSQLiteComponentRepository(assets.DB()),
		Arp:        store.NewSQLiteArpRepository(arpCat.DB()),
		Snapshots:  store.NewSQLiteSnapshotRepository(assets.DB()),
		Changes:    store.NewSQLiteChangeRepository(assets.DB()),
		Current:    store.NewSQLiteCaptureCurrentRepository(assets.DB()),
		JobRecords: store.NewSQLiteJobRepository(assets.DB()),

		Templates: templatedb.NewDatabase(templatedb.Builtin()),
		Dialer:    sshclient.SSHDialer{},
		Registry:  jobs.NewRegistry(),
		Metrics:   metrics.New(nil),
	}
	return a, nil
}

func (a *app) Close() {
	a.Assets.Close()
	a.ArpCat.Close()
	a.Users.Close()
}

// loader builds a parseload.Loader wired to this app's repositories, the
// default thresholds, and severity rules read from the config's "severity"
// section over the defaults (Open Questions #1 and #2).
func (a *app) loader(diffDir string) *parseload.Loader {
	rules := changearchive.DefaultSeverityRules()
	if err := a.Config.Sub("severity").Unmarshal(&rules); err != nil {
		a.Logger.Warn("invalid severity config, using defaults", zap.Error(err))
		rules = changearchive.DefaultSeverityRules()
	}
	return &parseload.Loader{
		Templates:     a.Templates,
		Devices:       parseload.StoreDeviceResolver{Devices: a.Devices},
		Components:    a.Components,
		Arp:           a.Arp,
		Current:       a.Current,
		Snapshots:     a.Snapshots,
		Changes:       a.Changes,
		DiffDir:       diffDir,
		SeverityRules: rules,
		Thresholds:    parseload.DefaultThresholds(),
	}
}

// captureDir is DATA_DIR/capture, the root collection writes raw output
// under and parseload reads from (§6 persisted state layout).
func (a *app) captureDir() string {
	return filepath.Join(a.Config.DataDir(), "capture")
}

func (a *app) diffDir() string {
	return filepath.Join(a.Config.DataDir(), "diffs")
}

func (a *app) discoveryDir() string {
	return filepath.Join(a.Config.DataDir(), "discovery")
}

// parseCaptureTypes parses a comma-separated --types flag value into
// catalog.Type values, rejecting anything not in the catalog.
func parseCaptureTypes(raw string) ([]catalog.Type, error) {
	var out []catalog.Type
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		t := catalog.Type(part)
		if _, ok := catalog.Catalog[t]; !ok {
			return nil, fmt.Errorf("unknown capture type %q", part)
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("--types is required")
	}
	return out, nil
}

func fatal(logger *zap.Logger, code int, msg string, err error) {
	logger.Error(msg, zap.Error(err))
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(code)
}
