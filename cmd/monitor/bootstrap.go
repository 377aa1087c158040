package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"market-event-monitor/internal/collector"
	"market-event-monitor/internal/engine"
	"market-event-monitor/internal/engine/engineobs"
	"market-event-monitor/internal/eventdb"
	"market-event-monitor/internal/interfaces"
	"market-event-monitor/internal/logger"
	"market-event-monitor/internal/news"
	"market-event-monitor/internal/recorder"
	"market-event-monitor/internal/scheduler"
	"market-event-monitor/internal/store"
	"market-event-monitor/internal/trace"
)

// initializeSystem loads .env and brings up the logger and tracer.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

func loadConfig(ctx context.Context) (*store.Config, error) {
	path := os.Getenv("MONITOR_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// openDatabase opens the event database. Corruption of both the primary
// and the backup is fatal and requires operator action.
func openDatabase(ctx context.Context, cfg *store.Config) (*eventdb.DB, error) {
	db, err := eventdb.Open(cfg.EventDBPath, cfg.EventDBBackupPath)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to open event database", err, "path", cfg.EventDBPath)
		return nil, err
	}
	logger.Info(ctx, "Event database opened",
		"path", cfg.EventDBPath,
		"events", db.Stats(interfaces.RealClock{}.Now()).Total,
	)
	return db, nil
}

func initializeRecorder(ctx context.Context, cfg *store.Config) recorder.Recorder {
	if cfg.Recorder.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	rec, err := recorder.NewSQLiteRecorder(cfg.Recorder.SQLitePath)
	if err != nil {
		logger.ErrorWithErr(ctx, "Falling back to noop recorder", err, "path", cfg.Recorder.SQLitePath)
		return recorder.NewNoopRecorder()
	}
	logger.Info(ctx, "Run recorder opened", "path", cfg.Recorder.SQLitePath)
	return rec
}

func initializePriceFetcher(ctx context.Context, cfg *store.Config) interfaces.PriceFetcher {
	switch cfg.Prices.Source {
	case "YAHOO":
		return collector.NewYahooFetcher(os.Getenv("HTTP_PROXY_URL"))
	case "KITE":
		return collector.NewKiteFetcher(collector.KiteParams{
			APIKey:      os.Getenv("KITE_API_KEY"),
			AccessToken: os.Getenv("KITE_ACCESS_TOKEN"),
			Instruments: cfg.Prices.Instruments,
		})
	default:
		logger.Warn(ctx, "Using STATIC synthetic price data")
		return collector.NewStaticFetcher()
	}
}

func initializeNewsFetcher(ctx context.Context, cfg *store.Config) interfaces.NewsFetcher {
	if cfg.Mode == "DRY_RUN" {
		logger.Warn(ctx, "DRY_RUN mode - news scraping disabled")
		return &news.StaticFetcher{}
	}
	return news.NewScraper(nil, 0)
}

func initializeScheduler(ctx context.Context, cfg *store.Config, db *eventdb.DB, rec recorder.Recorder) *scheduler.Scheduler {
	clock := interfaces.RealClock{}
	pipeline := engineobs.Wrap(engine.New(cfg, db, rec, clock))
	prices := initializePriceFetcher(ctx, cfg)
	newsFetcher := initializeNewsFetcher(ctx, cfg)
	return scheduler.New(ctx, cfg, pipeline, prices, newsFetcher, db, clock)
}
