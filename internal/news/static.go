package news

import (
	"context"

	"market-event-monitor/internal/types"
)

// StaticFetcher serves a fixed article set. Used in DRY_RUN mode and tests.
type StaticFetcher struct {
	Articles []types.Article
}

func (f *StaticFetcher) Name() string { return "static" }

func (f *StaticFetcher) Fetch(_ context.Context, symbols []string, from, to string) ([]types.Article, error) {
	want := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		want[s] = true
	}
	var out []types.Article
	for _, a := range f.Articles {
		if a.Symbol != "" && len(want) > 0 && !want[a.Symbol] {
			continue
		}
		if from != "" && a.Date < from {
			continue
		}
		if to != "" && a.Date >= to {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}
