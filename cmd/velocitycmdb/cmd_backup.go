package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/velocitycmdb/velocitycmdb/internal/backup"
)

// runBackup archives DATA_DIR into a tar.gz (§6 "backup").
func runBackup(args []string, logger *zap.Logger) {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	output := fs.String("output", "", "output file path (default: velocitycmdb-backup-{timestamp}.tar.gz)")
	configFlag := fs.String("config", "", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		os.Exit(exitPartial)
	}

	cfg := loadConfig(logger, *configFlag)

	if *output == "" {
		*output = fmt.Sprintf("velocitycmdb-backup-%s.tar.gz", time.Now().Format("20060102-150405"))
	}

	if err := backup.Backup(context.Background(), cfg.DataDir(), *configFlag, *output); err != nil {
		fmt.Fprintf(os.Stderr, "backup failed: %v\n", err)
		os.Exit(exitTotalFailure)
	}
	fmt.Printf("backup created: %s\n", *output)
}
