// Package engine drives the detection pipeline: bars and articles in,
// scored events in the database out.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"market-event-monitor/internal/auditlog"
	"market-event-monitor/internal/detector"
	"market-event-monitor/internal/eventdb"
	"market-event-monitor/internal/impact"
	"market-event-monitor/internal/interfaces"
	"market-event-monitor/internal/logger"
	"market-event-monitor/internal/news"
	"market-event-monitor/internal/recorder"
	"market-event-monitor/internal/series"
	"market-event-monitor/internal/store"
	"market-event-monitor/internal/types"
)

type Engine struct {
	cfg      *store.Config
	bars     *series.Store
	analyzer *news.Analyzer
	det      *detector.Detector
	scorer   *impact.Scorer
	db       *eventdb.DB
	rec      recorder.Recorder
	clock    interfaces.Clock
}

func New(cfg *store.Config, db *eventdb.DB, rec recorder.Recorder, clock interfaces.Clock) *Engine {
	det := detector.New(detector.Config{
		PriceThreshold:  cfg.Threshold.Price,
		VolumeThreshold: cfg.Threshold.Volume,
		ATRThreshold:    cfg.Threshold.ATR,
		NewsCutoff:      cfg.News.ConfidenceCutoff,
	})
	dc := det.Config()
	return &Engine{
		cfg:  cfg,
		bars: series.NewStore(),
		analyzer: news.NewAnalyzer(news.AnalyzerConfig{
			PositiveWords: cfg.PositiveWords,
			NegativeWords: cfg.NegativeWords,
			MaxEntities:   cfg.News.MaxEntities,
		}),
		det: det,
		scorer: impact.NewScorer(impact.Thresholds{
			Price:  dc.PriceThreshold,
			Volume: dc.VolumeThreshold,
			ATR:    dc.ATRThreshold,
		}),
		db:     db,
		rec:    rec,
		clock:  clock,
	}
}

// ProcessBatch ingests the bars, analyzes the articles, detects and scores
// events, and appends them to the database in one atomic batch. Invalid bar
// series and unparseable articles are rejected unit-by-unit; the rest of
// the batch proceeds.
func (e *Engine) ProcessBatch(ctx context.Context, bars map[string][]types.Bar, articles []types.Article) (*interfaces.BatchResult, error) {
	start := e.clock.Now()

	valid := make(map[string][]types.Bar, len(bars))
	for sym, b := range bars {
		if err := e.bars.Put(sym, b); err != nil {
			logger.ErrorWithErr(ctx, "Rejecting bar series", err, "symbol", sym)
			continue
		}
		valid[sym] = e.bars.Get(sym, "", "")
	}

	analyses := make([]types.ArticleAnalysis, 0, len(articles))
	for _, a := range articles {
		if a.Symbol != "" && !types.ValidSymbol(a.Symbol) {
			err := fmt.Errorf("%w: bad symbol %q", types.ErrParse, a.Symbol)
			logger.ErrorWithErr(ctx, "Rejecting article", err, "title", a.Title)
			continue
		}
		if a.Date != "" {
			if _, err := types.ParseDate(a.Date); err != nil {
				logger.ErrorWithErr(ctx, "Rejecting article", err, "title", a.Title)
				continue
			}
		}
		analyses = append(analyses, e.analyzer.AnalyzeArticle(a))
	}

	events, err := e.det.Detect(ctx, valid, analyses, start)
	if err != nil {
		return nil, err
	}

	res := &interfaces.BatchResult{Symbols: len(valid), Articles: len(analyses)}
	for i := range events {
		events[i].Impact = e.scorer.Score(events[i])
		if events[i].Type.PriceDerived() {
			res.PriceEvents++
		} else {
			res.NewsEvents++
		}
	}

	appended, err := e.db.AppendBatch(ctx, events)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		logger.ErrorWithErr(ctx, "Failed to persist batch", err, "events", len(events))
		return nil, err
	}
	res.Appended = appended
	res.TotalStored = e.db.Stats(start).Total

	for _, ev := range events {
		rec := impact.Recommendation(ev, ev.Impact)
		logger.Info(ctx, "Event detected",
			"symbol", ev.Symbol,
			"date", ev.Date,
			"type", ev.Type.String(),
			"magnitude", ev.Magnitude,
			"impact", ev.Impact,
			"strategy", rec,
		)
		if err := auditlog.Append(ev, rec); err != nil {
			logger.Warn(ctx, "Failed to write audit log entry", "error", err)
		}
	}

	if e.rec != nil {
		summary := recorder.RunSummary{
			Timestamp:   start.Unix(),
			Symbols:     res.Symbols,
			Articles:    res.Articles,
			NewsEvents:  res.NewsEvents,
			PriceEvents: res.PriceEvents,
			Appended:    res.Appended,
			TotalStored: res.TotalStored,
			DurationMs:  time.Since(start).Milliseconds(),
		}
		if err := e.rec.RecordRun(summary); err != nil {
			logger.Warn(ctx, "Failed to record run summary", "error", err)
		}
	}
	return res, nil
}

// Series exposes the scratchpad store, mainly for tests and the CLI.
func (e *Engine) Series() *series.Store { return e.bars }
