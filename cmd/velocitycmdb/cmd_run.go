package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/velocitycmdb/velocitycmdb/internal/scheduler"
	"github.com/velocitycmdb/velocitycmdb/internal/server"
)

// runServe launches the HTTP/WebSocket server and the job scheduler
// together, shutting both down gracefully on SIGINT/SIGTERM (§6 "run").
func runServe(args []string, logger *zap.Logger) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	host := fs.String("host", "0.0.0.0", "listen host")
	port := fs.Int("port", 8080, "listen port")
	_ = fs.Bool("ssl", false, "reserved: TLS termination is handled by a front proxy in this rewrite")
	_ = fs.Bool("no-debug", false, "reserved for parity with the documented flag set; this build has no debug mode to disable")
	configFlag := fs.String("config", "", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		os.Exit(exitPartial)
	}

	cfg := loadConfig(logger, *configFlag)
	a, err := openApp(cfg, logger)
	if err != nil {
		fatal(logger, exitTotalFailure, "run", err)
	}
	defer a.Close()
	a.registerRunners()

	addr := fmt.Sprintf("%s:%d", *host, *port)
	srv := server.New(addr, a.Registry, a.JobRecords, logger)

	sched := &scheduler.Scheduler{Registry: a.Registry, Jobs: a.JobRecords, Logger: logger, Metrics: a.Metrics}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := sched.Run(ctx); err != nil {
			logger.Error("scheduler stopped", zap.Error(err))
		}
	}()

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("velocitycmdb ready", zap.String("addr", addr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("velocitycmdb stopped")
}
