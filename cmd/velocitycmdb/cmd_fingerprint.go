package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/velocitycmdb/velocitycmdb/internal/fingerprint"
	"github.com/velocitycmdb/velocitycmdb/internal/inventory"
	"github.com/velocitycmdb/velocitycmdb/internal/sshclient"
)

// runFingerprint runs a synchronous fingerprint pass over an inventory
// file (§6 "fingerprint"), exiting 0 all ok, 1 partial, 2 total failure.
func runFingerprint(args []string, logger *zap.Logger) {
	fs := flag.NewFlagSet("fingerprint", flag.ExitOnError)
	invPath := fs.String("inventory", "", "inventory file path (required)")
	username := fs.String("username", "", "SSH username (required)")
	password := fs.String("password", "", "SSH password (required)")
	configFlag := fs.String("config", "", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		os.Exit(exitPartial)
	}
	if *invPath == "" || *username == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "error: --inventory, --username, and --password are required")
		os.Exit(exitPartial)
	}

	cfg := loadConfig(logger, *configFlag)
	a, err := openApp(cfg, logger)
	if err != nil {
		fatal(logger, exitTotalFailure, "fingerprint", err)
	}
	defer a.Close()

	inv, err := inventory.Load(*invPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fingerprint failed: %v\n", err)
		os.Exit(exitTotalFailure)
	}

	fp := &fingerprint.Fingerprinter{Dialer: a.Dialer, Templates: a.Templates, Devices: a.Devices}
	creds := sshclient.Credentials{Username: *username, Password: *password}

	report, err := fp.Run(context.Background(), inv, creds, fingerprint.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "fingerprint failed: %v\n", err)
		os.Exit(exitTotalFailure)
	}
	if err := inventory.Save(*invPath, inv); err != nil {
		fmt.Fprintf(os.Stderr, "fingerprint: save inventory failed: %v\n", err)
		os.Exit(exitTotalFailure)
	}

	fmt.Printf("fingerprinted %d, failed %d\n", report.Identified, report.Failed)
	for _, f := range report.FailedDevices {
		fmt.Printf("  failed: %s (%s)\n", f.Name, f.Reason)
	}

	switch {
	case report.Identified == 0 && report.Failed > 0:
		os.Exit(exitTotalFailure)
	case report.Failed > 0:
		os.Exit(exitPartial)
	default:
		os.Exit(exitOK)
	}
}
