package interfaces

import (
	"context"

	"market-event-monitor/internal/types"
)

// PriceFetcher retrieves daily bars for one symbol over [from, to).
type PriceFetcher interface {
	Fetch(ctx context.Context, symbol, from, to string) ([]types.Bar, error)
	Name() string
}

// NewsFetcher retrieves articles mentioning the given symbols over [from, to).
type NewsFetcher interface {
	Fetch(ctx context.Context, symbols []string, from, to string) ([]types.Article, error)
	Name() string
}
