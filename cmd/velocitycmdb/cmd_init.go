package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// runInit creates the data directory and the three named databases
// (§6 "init"). Without --force it refuses to clobber an already
// initialized data directory.
func runInit(args []string, logger *zap.Logger) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "re-initialize even if the data directory already has databases")
	configFlag := fs.String("config", "", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		os.Exit(exitPartial)
	}

	cfg := loadConfig(logger, *configFlag)
	dataDir := cfg.DataDir()

	if !*force {
		if _, err := os.Stat(filepath.Join(dataDir, "assets.db")); err == nil {
			fmt.Fprintf(os.Stderr, "%s already initialized (use --force to re-initialize)\n", dataDir)
			os.Exit(exitPartial)
		}
	}

	a, err := openApp(cfg, logger)
	if err != nil {
		fatal(logger, exitTotalFailure, "init", err)
	}
	defer a.Close()

	for _, dir := range []string{a.captureDir(), a.diffDir(), a.discoveryDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fatal(logger, exitTotalFailure, "create "+dir, err)
		}
	}

	fmt.Printf("initialized %s\n", dataDir)
}
