package interfaces

import (
	"context"

	"market-event-monitor/internal/types"
)

// BatchResult summarizes one processed batch.
type BatchResult struct {
	Symbols     int
	Articles    int
	NewsEvents  int
	PriceEvents int
	Appended    int
	TotalStored int
}

// Pipeline turns prepared bar series and articles into stored events.
type Pipeline interface {
	ProcessBatch(ctx context.Context, bars map[string][]types.Bar, articles []types.Article) (*BatchResult, error)
}
