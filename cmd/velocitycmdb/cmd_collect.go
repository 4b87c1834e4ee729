package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/velocitycmdb/velocitycmdb/internal/collection"
	"github.com/velocitycmdb/velocitycmdb/internal/inventory"
	"github.com/velocitycmdb/velocitycmdb/internal/sshclient"
)

// runCollect runs a synchronous capture across a device selection (§6
// "collect"), exiting 0 all ok, 1 partial, 2 total failure.
func runCollect(args []string, logger *zap.Logger) {
	fs := flag.NewFlagSet("collect", flag.ExitOnError)
	devicesSel := fs.String("devices", "all", `device selection: "all" or a comma-separated hostname list`)
	types := fs.String("types", "", "comma-separated capture types, e.g. configs,version (required)")
	username := fs.String("username", "", "SSH username (required)")
	password := fs.String("password", "", "SSH password (required)")
	// Worker counts above ~20 have not been measured.
	workers := fs.Int("max-workers", 5, "max concurrent SSH sessions (1..50; behavior above ~20 is unmeasured)")
	dialRate := fs.Float64("dial-rate", 0, "max new SSH connections per second across the whole run (0 = unlimited)")
	noLoad := fs.Bool("no-load-db", false, "skip parse-and-load after capture")
	configFlag := fs.String("config", "", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		os.Exit(exitPartial)
	}
	if *username == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "error: --username and --password are required")
		os.Exit(exitPartial)
	}
	captureTypes, err := parseCaptureTypes(*types)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitPartial)
	}

	cfg := loadConfig(logger, *configFlag)
	a, err := openApp(cfg, logger)
	if err != nil {
		fatal(logger, exitTotalFailure, "collect", err)
	}
	defer a.Close()

	invPath := filepath.Join(a.discoveryDir(), "sessions.yaml")
	inv, err := inventory.Load(invPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "collect failed: %v\n", err)
		os.Exit(exitTotalFailure)
	}

	targets, err := selectTargets(context.Background(), a, inv, *devicesSel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "collect failed: %v\n", err)
		os.Exit(exitTotalFailure)
	}
	if len(targets) == 0 {
		fmt.Fprintln(os.Stderr, "collect: no matching devices")
		os.Exit(exitPartial)
	}

	var loader = a.loader(a.diffDir())
	if *noLoad {
		loader = nil
	}
	c := &collection.Collector{Dialer: a.Dialer, OutputDir: a.captureDir(), Loader: loader, Metrics: a.Metrics}
	if *dialRate > 0 {
		c.DialLimiter = rate.NewLimiter(rate.Limit(*dialRate), 1)
	}

	bus := newCLIBus()
	stop := printProgress(bus)

	creds := sshclient.Credentials{Username: *username, Password: *password}
	summary, err := c.Run(context.Background(), targets, captureTypes, creds, collection.Options{MaxWorkers: *workers, AutoLoadDB: !*noLoad}, bus)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "collect failed: %v\n", err)
		os.Exit(exitTotalFailure)
	}

	fmt.Printf("succeeded %d, failed %d, took %s\n", summary.DevicesSucceeded, summary.DevicesFailed, summary.ExecutionTime)

	switch {
	case summary.DevicesSucceeded == 0 && summary.DevicesFailed > 0:
		os.Exit(exitTotalFailure)
	case summary.DevicesFailed > 0:
		os.Exit(exitPartial)
	default:
		os.Exit(exitOK)
	}
}

// selectTargets resolves the --devices selector ("all" or a comma
// separated hostname list) against the inventory's fingerprinted
// sessions.
func selectTargets(ctx context.Context, a *app, inv *inventory.File, selector string) ([]collection.Target, error) {
	all, err := targetsFromInventory(ctx, a.Devices, inv)
	if err != nil {
		return nil, err
	}
	if selector == "" || selector == "all" {
		return all, nil
	}

	wanted := make(map[string]bool)
	for _, name := range strings.Split(selector, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			wanted[name] = true
		}
	}

	var out []collection.Target
	for _, t := range all {
		if wanted[t.Hostname] {
			out = append(out, t)
		}
	}
	return out, nil
}

