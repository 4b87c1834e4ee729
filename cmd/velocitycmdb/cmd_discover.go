package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/velocitycmdb/velocitycmdb/internal/discovery"
	"github.com/velocitycmdb/velocitycmdb/internal/sshclient"
)

// runDiscover runs a synchronous discovery crawl from a seed IP (§6
// "discover"), printing progress to stdout and exiting 0/1/2 per the
// documented contract.
func runDiscover(args []string, logger *zap.Logger) {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	seed := fs.String("seed", "", "seed device IP (required)")
	username := fs.String("username", "", "SSH username (required)")
	password := fs.String("password", "", "SSH password (required)")
	site := fs.String("site", "default", "site name grouping for the inventory folder")
	configFlag := fs.String("config", "", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		os.Exit(exitPartial)
	}
	if *seed == "" || *username == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "error: --seed, --username, and --password are required")
		os.Exit(exitPartial)
	}

	cfg := loadConfig(logger, *configFlag)
	a, err := openApp(cfg, logger)
	if err != nil {
		fatal(logger, exitTotalFailure, "discover", err)
	}
	defer a.Close()

	if err := os.MkdirAll(a.discoveryDir(), 0o755); err != nil {
		fatal(logger, exitTotalFailure, "discover", err)
	}

	crawler := &discovery.Crawler{
		Dialer:        a.Dialer,
		Templates:     a.Templates,
		InventoryPath: filepath.Join(a.discoveryDir(), "sessions.yaml"),
		TopologyPath:  filepath.Join(a.discoveryDir(), "network.json"),
	}

	bus := newCLIBus()
	stop := printProgress(bus)

	creds := sshclient.Credentials{Username: *username, Password: *password}
	result, err := crawler.Run(context.Background(), discovery.Peer{IP: *seed}, creds, discovery.Options{SiteName: *site}, bus)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "discover failed: %v\n", err)
		os.Exit(exitTotalFailure)
	}

	if len(result.FailedPeers) > 0 && seedFailed(result.FailedPeers, *seed) {
		if seedAuthFailure(result.FailedPeers, *seed) {
			fmt.Fprintln(os.Stderr, "discover: seed authentication failed")
			os.Exit(exitTotalFailure)
		}
		fmt.Fprintln(os.Stderr, "discover: seed unreachable")
		os.Exit(exitPartial)
	}

	fmt.Printf("discovered %d devices, inventory at %s\n", result.DeviceCount, result.InventoryPath)
}

func seedFailed(failed []discovery.FailedPeer, seedIP string) bool {
	for _, f := range failed {
		if f.IP == seedIP {
			return true
		}
	}
	return false
}

// seedAuthFailure distinguishes "credentials rejected" from "unreachable"
// by matching the underlying SSH error text carried in the reason string,
// since discovery's visitPeer wraps every dial failure in an
// errs.TransportError with Op "dial" and no dedicated error code path.
func seedAuthFailure(failed []discovery.FailedPeer, seedIP string) bool {
	for _, f := range failed {
		if f.IP == seedIP && (strings.Contains(f.Reason, "auth") || strings.Contains(f.Reason, "handshake")) {
			return true
		}
	}
	return false
}
