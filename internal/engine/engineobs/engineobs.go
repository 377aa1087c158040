package engineobs

import (
	"context"
	"time"

	"market-event-monitor/internal/interfaces"
	"market-event-monitor/internal/logger"
	"market-event-monitor/internal/trace"
	"market-event-monitor/internal/types"
)

type observablePipeline struct {
	inner interfaces.Pipeline
}

var _ interfaces.Pipeline = (*observablePipeline)(nil)

// Wrap adds span and log instrumentation around a pipeline.
func Wrap(p interfaces.Pipeline) interfaces.Pipeline {
	return &observablePipeline{inner: p}
}

func (op *observablePipeline) ProcessBatch(ctx context.Context, bars map[string][]types.Bar, articles []types.Article) (*interfaces.BatchResult, error) {
	ctx, span := trace.StartSpan(ctx, "pipeline.ProcessBatch")
	defer span.End()

	start := time.Now()

	logger.Info(ctx, "Starting batch",
		"symbols", len(bars),
		"articles", len(articles),
	)

	result, err := op.inner.ProcessBatch(ctx, bars, articles)
	if err != nil {
		logger.ErrorWithErr(ctx, "Batch failed", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.Info(ctx, "Batch completed",
		"news_events", result.NewsEvents,
		"price_events", result.PriceEvents,
		"appended", result.Appended,
		"total_stored", result.TotalStored,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}
