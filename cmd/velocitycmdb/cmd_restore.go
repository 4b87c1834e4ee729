package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/velocitycmdb/velocitycmdb/internal/backup"
)

// runRestore extracts a backup archive into DATA_DIR (§6 "restore").
func runRestore(args []string, logger *zap.Logger) {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	input := fs.String("input", "", "backup archive to restore (required)")
	force := fs.Bool("force", false, "overwrite existing files")
	configFlag := fs.String("config", "", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		os.Exit(exitPartial)
	}
	if *input == "" {
		fmt.Fprintln(os.Stderr, "error: --input is required")
		os.Exit(exitPartial)
	}

	cfg := loadConfig(logger, *configFlag)

	if err := backup.Restore(context.Background(), *input, cfg.DataDir(), *force); err != nil {
		fmt.Fprintf(os.Stderr, "restore failed: %v\n", err)
		if !*force {
			os.Exit(exitPartial)
		}
		os.Exit(exitTotalFailure)
	}
	fmt.Printf("restore complete: files restored to %s\n", cfg.DataDir())
}
