// Package scheduler runs the fetch-and-process cycle and database backups
// on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"market-event-monitor/internal/auditlog"
	"market-event-monitor/internal/eventdb"
	"market-event-monitor/internal/interfaces"
	"market-event-monitor/internal/logger"
	"market-event-monitor/internal/store"
	"market-event-monitor/internal/types"
)

// Audit files older than this get gzipped during the backup task.
const auditRetentionDays = 30

type Scheduler struct {
	cron     *cron.Cron
	cfg      *store.Config
	pipeline interfaces.Pipeline
	prices   interfaces.PriceFetcher
	news     interfaces.NewsFetcher
	db       *eventdb.DB
	clock    interfaces.Clock
	ctx      context.Context
}

func New(ctx context.Context, cfg *store.Config, p interfaces.Pipeline, prices interfaces.PriceFetcher, newsFetcher interfaces.NewsFetcher, db *eventdb.DB, clock interfaces.Clock) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		cfg:      cfg,
		pipeline: p,
		prices:   prices,
		news:     newsFetcher,
		db:       db,
		clock:    clock,
		ctx:      ctx,
	}
}

// RegisterAll registers the batch and backup tasks.
func (s *Scheduler) RegisterAll() error {
	if _, err := s.cron.AddFunc(s.cfg.Schedule.BatchCron, s.batchTask); err != nil {
		return fmt.Errorf("register batch task: %w", err)
	}
	if _, err := s.cron.AddFunc(s.cfg.Schedule.BackupCron, s.backupTask); err != nil {
		return fmt.Errorf("register backup task: %w", err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info(s.ctx, "Scheduler started",
		"batch_cron", s.cfg.Schedule.BatchCron,
		"backup_cron", s.cfg.Schedule.BackupCron,
	)
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	logger.Info(s.ctx, "Scheduler stopped")
}

// RunBatchNow executes the batch task immediately (manual trigger or
// run_on_start).
func (s *Scheduler) RunBatchNow() {
	s.batchTask()
}

func (s *Scheduler) batchTask() {
	ctx := s.ctx
	now := s.clock.Now()
	to := now.AddDate(0, 0, 1).Format(types.DateLayout)
	from := now.AddDate(0, 0, -s.cfg.Prices.LookbackDays).Format(types.DateLayout)

	bars := make(map[string][]types.Bar, len(s.cfg.Universe))
	for _, sym := range s.cfg.Universe {
		b, err := s.prices.Fetch(ctx, sym, from, to)
		if err != nil {
			logger.ErrorWithErr(ctx, "Price fetch failed", err, "symbol", sym, "source", s.prices.Name())
			continue
		}
		bars[sym] = b
	}

	newsFrom := now.AddDate(0, 0, -7).Format(types.DateLayout)
	articles, err := s.news.Fetch(ctx, s.cfg.Universe, newsFrom, to)
	if err != nil {
		logger.ErrorWithErr(ctx, "News fetch failed", err, "source", s.news.Name())
	}
	if len(articles) > s.cfg.News.MaxArticles {
		articles = articles[:s.cfg.News.MaxArticles]
	}

	if _, err := s.pipeline.ProcessBatch(ctx, bars, articles); err != nil {
		logger.ErrorWithErr(ctx, "Batch processing failed", err)
	}
}

func (s *Scheduler) backupTask() {
	start := time.Now()
	if err := s.db.Backup(); err != nil {
		logger.ErrorWithErr(s.ctx, "Backup failed", err)
		return
	}
	if err := auditlog.CompressOlder(auditRetentionDays); err != nil {
		logger.Warn(s.ctx, "Audit log compression failed", "error", err)
	}
	logger.Info(s.ctx, "Backup completed", "duration_ms", time.Since(start).Milliseconds())
}
