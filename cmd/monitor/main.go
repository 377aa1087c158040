package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"market-event-monitor/internal/logger"
	"market-event-monitor/internal/trace"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := initializeSystem(); err != nil {
		return err
	}
	defer logger.Sync()
	defer trace.Shutdown(context.Background())

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	rec := initializeRecorder(ctx, cfg)
	defer rec.Close()

	sched := initializeScheduler(ctx, cfg, db, rec)
	if err := sched.RegisterAll(); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if cfg.Schedule.RunOnStart {
		sched.RunBatchNow()
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigc:
		logger.Info(ctx, "Shutting down")
		if err := db.Backup(); err != nil {
			logger.ErrorWithErr(ctx, "Final backup failed", err)
		}
	case <-ctx.Done():
	}
	return nil
}
