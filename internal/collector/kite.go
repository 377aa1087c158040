package collector

import (
	"context"
	"fmt"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"market-event-monitor/internal/types"
)

// KiteFetcher implements PriceFetcher using the Zerodha Kite Connect
// historical data API. Symbols must be mapped to instrument tokens in
// configuration.
type KiteFetcher struct {
	client      *kiteconnect.Client
	instruments map[string]int
}

type KiteParams struct {
	APIKey      string
	AccessToken string
	Instruments map[string]int
}

func NewKiteFetcher(p KiteParams) *KiteFetcher {
	kc := kiteconnect.New(p.APIKey)
	kc.SetAccessToken(p.AccessToken)
	return &KiteFetcher{client: kc, instruments: p.Instruments}
}

func (f *KiteFetcher) Name() string { return "kite" }

// Fetch returns daily bars for [from, to), oldest first.
func (f *KiteFetcher) Fetch(ctx context.Context, symbol, from, to string) ([]types.Bar, error) {
	token, ok := f.instruments[symbol]
	if !ok {
		return nil, fmt.Errorf("kite: no instrument token for %s", symbol)
	}

	fromT, err := types.ParseDate(from)
	if err != nil {
		return nil, err
	}
	toT, err := types.ParseDate(to)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := f.client.GetHistoricalData(token, "day", fromT, toT.Add(-24*time.Hour), false, false)
	if err != nil {
		return nil, fmt.Errorf("kite historical data: %w", err)
	}

	bars := make([]types.Bar, 0, len(data))
	for _, c := range data {
		bars = append(bars, types.Bar{
			Date:     c.Date.Time.Format(types.DateLayout),
			Open:     c.Open,
			High:     c.High,
			Low:      c.Low,
			Close:    c.Close,
			AdjClose: c.Close,
			Volume:   float64(c.Volume),
		})
	}
	return clipRange(bars, from, to), nil
}
