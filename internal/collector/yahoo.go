package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"time"

	"market-event-monitor/internal/api"
	"market-event-monitor/internal/types"
)

// YahooFetcher implements PriceFetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	client    *api.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

func NewYahooFetcher(proxyURL string) *YahooFetcher {
	return &YahooFetcher{
		client: api.NewClient(
			api.WithProxy(proxyURL),
			api.WithLogging(true),
		),
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from the Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []any `json:"open"`
					High   []any `json:"high"`
					Low    []any `json:"low"`
					Close  []any `json:"close"`
					Volume []any `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []any `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

// Fetch returns daily bars for [from, to), oldest first.
func (f *YahooFetcher) Fetch(ctx context.Context, symbol, from, to string) ([]types.Bar, error) {
	u := fmt.Sprintf("https://query1.finance.yahoo.com/v8/finance/chart/%s?interval=1d&range=2y",
		url.PathEscape(f.yahooSymbol(symbol)))

	resp, err := f.client.GETWithRetry(ctx, u, api.YahooFinanceHeaders(), api.DefaultRetryConfig())
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}

	var chart yahooChart
	if err := json.Unmarshal(resp.Body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned")
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no quote data returned")
	}
	quote := result.Indicators.Quote[0]
	bars := make([]types.Bar, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o := toFloat(quote.Open[i])
		h := toFloat(quote.High[i])
		l := toFloat(quote.Low[i])
		c := toFloat(quote.Close[i])
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // null bars on holidays
		}
		bar := types.Bar{
			Date:     time.Unix(ts, 0).UTC().Format(types.DateLayout),
			Open:     o,
			High:     h,
			Low:      l,
			Close:    c,
			AdjClose: c,
			Volume:   toFloat(quote.Volume[i]),
		}
		if len(result.Indicators.AdjClose) > 0 && i < len(result.Indicators.AdjClose[0].AdjClose) {
			if ac := toFloat(result.Indicators.AdjClose[0].AdjClose[i]); ac != 0 {
				bar.AdjClose = ac
			}
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })
	return clipRange(bars, from, to), nil
}

func clipRange(bars []types.Bar, from, to string) []types.Bar {
	out := bars[:0]
	for _, b := range bars {
		if from != "" && b.Date < from {
			continue
		}
		if to != "" && b.Date >= to {
			continue
		}
		out = append(out, b)
	}
	return out
}
