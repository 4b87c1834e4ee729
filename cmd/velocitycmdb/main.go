package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/velocitycmdb/velocitycmdb/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(exitPartial)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(exitTotalFailure)
	}
	defer logger.Sync()

	cmd, args := os.Args[1], os.Args[2:]

	switch cmd {
	case "init":
		runInit(args, logger)
	case "run":
		runServe(args, logger)
	case "discover":
		runDiscover(args, logger)
	case "fingerprint":
		runFingerprint(args, logger)
	case "collect":
		runCollect(args, logger)
	case "job":
		runJob(args, logger)
	case "backup":
		runBackup(args, logger)
	case "restore":
		runRestore(args, logger)
	case "cleanup":
		runCleanup(args, logger)
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		usage()
		os.Exit(exitPartial)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `velocitycmdb - network CMDB discovery, fingerprint, and collection

Usage:
  velocitycmdb init [--force]
  velocitycmdb run [--host H] [--port P] [--ssl] [--no-debug]
  velocitycmdb discover --seed IP --username U --password P [--site NAME]
  velocitycmdb fingerprint --inventory PATH --username U --password P
  velocitycmdb collect --devices SEL --types T1,T2 --username U --password P
  velocitycmdb job {create|list|show|run|enable|disable|delete}
  velocitycmdb backup [--output PATH] [--config PATH]
  velocitycmdb restore --input PATH [--force]
  velocitycmdb cleanup components

Environment:
  DATA_DIR          base directory for databases, captures, diffs
  CRED_N_USER/PASS  credential injection for workers (N = 1..10)
  CONFIG            path to configuration file`)
}

// loadConfig reads --config/CONFIG the way every subcommand needs it,
// exiting exitTotalFailure on a malformed config file.
func loadConfig(logger *zap.Logger, configFlag string) *config.Config {
	path := configFlag
	if path == "" {
		path = os.Getenv("CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		fatal(logger, exitTotalFailure, "load config", err)
	}
	return cfg
}
