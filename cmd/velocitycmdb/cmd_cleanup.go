package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/velocitycmdb/velocitycmdb/internal/parseload"
)

// runCleanup dispatches `cleanup components`, the reclassification batch
// supplementing the documented "cleanup utility may purge" note (§6; see
// SPEC_FULL's C5 supplement).
func runCleanup(args []string, logger *zap.Logger) {
	if len(args) < 1 || args[0] != "components" {
		fmt.Fprintln(os.Stderr, "usage: velocitycmdb cleanup components [--batch-size N]")
		os.Exit(exitPartial)
	}

	fs := flag.NewFlagSet("cleanup-components", flag.ExitOnError)
	batchSize := fs.Int("batch-size", 500, "max unknown-type components to examine per pass")
	configFlag := fs.String("config", "", "path to configuration file")
	if err := fs.Parse(args[1:]); err != nil {
		os.Exit(exitPartial)
	}

	cfg := loadConfig(logger, *configFlag)
	a, err := openApp(cfg, logger)
	if err != nil {
		fatal(logger, exitTotalFailure, "cleanup", err)
	}
	defer a.Close()

	report, err := parseload.Reclassify(context.Background(), a.Components, *batchSize)
	if err != nil {
		fatal(logger, exitTotalFailure, "cleanup components", err)
	}

	fmt.Printf("considered %d, classified %d, junk %d, still unknown %d\n",
		report.Considered, report.Classified, report.Junk, report.StillUnknown)
}
