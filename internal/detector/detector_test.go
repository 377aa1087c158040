package detector

import (
	"context"
	"math"
	"testing"
	"time"

	"market-event-monitor/internal/types"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func flatBar(date string, close, volume float64) types.Bar {
	return types.Bar{Date: date, Open: close, High: close, Low: close, Close: close, Volume: volume}
}

func dates(n int) []string {
	out := make([]string, n)
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		out[i] = d.Format(types.DateLayout)
		d = d.AddDate(0, 0, 1)
	}
	return out
}

func TestPriceJump(t *testing.T) {
	d := New(Config{})
	ds := dates(3)
	bars := []types.Bar{
		flatBar(ds[0], 100, 1000),
		flatBar(ds[1], 100, 1000),
		{Date: ds[2], Open: 100, High: 107, Low: 100, Close: 107, Volume: 1000},
	}

	events := d.PriceEvents("AAPL", bars, testNow)
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Type != types.PriceJump {
		t.Errorf("Expected PriceJump, got %s", ev.Type)
	}
	if ev.Symbol != "AAPL" || ev.Date != ds[2] {
		t.Errorf("Unexpected symbol/date: %s %s", ev.Symbol, ev.Date)
	}
	if math.Abs(ev.Magnitude-0.07) > 1e-9 {
		t.Errorf("Expected magnitude 0.07, got %f", ev.Magnitude)
	}
	if ev.Timestamp != testNow.Unix() {
		t.Errorf("Expected timestamp %d, got %d", testNow.Unix(), ev.Timestamp)
	}
}

func TestPriceDrop(t *testing.T) {
	d := New(Config{})
	ds := dates(2)
	bars := []types.Bar{
		flatBar(ds[0], 100, 1000),
		{Date: ds[1], Open: 100, High: 100, Low: 94, Close: 94, Volume: 1000},
	}

	events := d.PriceEvents("TCS", bars, testNow)
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].Type != types.PriceDrop {
		t.Errorf("Expected PriceDrop, got %s", events[0].Type)
	}
	if events[0].Magnitude >= 0 {
		t.Errorf("Expected negative magnitude, got %f", events[0].Magnitude)
	}
}

func TestPriceMoveBelowThreshold(t *testing.T) {
	d := New(Config{})
	ds := dates(2)
	bars := []types.Bar{flatBar(ds[0], 100, 1000), flatBar(ds[1], 104, 1000)}

	if events := d.PriceEvents("TCS", bars, testNow); len(events) != 0 {
		t.Errorf("Expected no events for a 4%% move, got %d", len(events))
	}
}

func TestVolumeSpike(t *testing.T) {
	d := New(Config{})
	ds := dates(25)
	bars := make([]types.Bar, 25)
	for i := range bars {
		bars[i] = flatBar(ds[i], 100, 100)
	}
	bars[24].Volume = 400 // 400 / ((19*100+400)/20) = 3.48x

	events := d.PriceEvents("INFY", bars, testNow)
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].Type != types.VolumeSpike {
		t.Errorf("Expected VolumeSpike, got %s", events[0].Type)
	}
	if events[0].Date != ds[24] {
		t.Errorf("Expected date %s, got %s", ds[24], events[0].Date)
	}
	if events[0].Magnitude < 3.0 {
		t.Errorf("Expected magnitude at least the threshold, got %f", events[0].Magnitude)
	}
}

func TestVolumeRuleSkippedOnShortSeries(t *testing.T) {
	d := New(Config{})
	ds := dates(5)
	bars := make([]types.Bar, 5)
	for i := range bars {
		bars[i] = flatBar(ds[i], 100, 100)
	}
	bars[4].Volume = 10000

	if events := d.PriceEvents("INFY", bars, testNow); len(events) != 0 {
		t.Errorf("Expected no events while the volume SMA warms up, got %d", len(events))
	}
}

func TestVolumeRuleSkippedOnZeroAverage(t *testing.T) {
	d := New(Config{})
	ds := dates(25)
	bars := make([]types.Bar, 25)
	for i := range bars {
		bars[i] = flatBar(ds[i], 100, 0)
	}

	// A dead 20-bar window has nothing to spike against.
	if events := d.PriceEvents("INFY", bars, testNow); len(events) != 0 {
		t.Errorf("Expected no events on a zero-volume window, got %d", len(events))
	}
}

func TestVolatilitySpike(t *testing.T) {
	d := New(Config{})
	ds := dates(40)
	bars := make([]types.Bar, 40)
	for i := range bars {
		// Baseline range of 1, then a wide-range regime from bar 21.
		lo, hi := 99.5, 100.5
		if i >= 21 {
			lo, hi = 90.0, 110.0
		}
		bars[i] = types.Bar{Date: ds[i], Open: 100, High: hi, Low: lo, Close: 100, Volume: 100}
	}

	events := d.PriceEvents("RELIANCE", bars, testNow)
	found := false
	for _, ev := range events {
		if ev.Type == types.VolatilitySpike {
			found = true
			if ev.Magnitude < 2.0 {
				t.Errorf("Expected magnitude at least the threshold, got %f", ev.Magnitude)
			}
		}
	}
	if !found {
		t.Error("Expected at least one VolatilitySpike event")
	}
}

func TestDetectOrdering(t *testing.T) {
	d := New(Config{})
	ds := dates(3)
	bars := map[string][]types.Bar{
		"AAPL": {
			flatBar(ds[0], 100, 1000),
			{Date: ds[1], Open: 100, High: 108, Low: 100, Close: 108, Volume: 1000},
		},
	}
	analyses := []types.ArticleAnalysis{
		{
			Article:             types.Article{Title: "TCS announces merger", Symbol: "TCS", Date: ds[2]},
			CandidateType:       types.MergerAcquisition,
			CandidateConfidence: 0.8,
		},
	}

	events, err := d.Detect(context.Background(), bars, analyses, testNow)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].Type != types.MergerAcquisition {
		t.Errorf("Expected the news event first, got %s", events[0].Type)
	}
	if events[1].Type != types.PriceJump {
		t.Errorf("Expected the price event second, got %s", events[1].Type)
	}
}

func TestDetectPriceEventsSortedByDate(t *testing.T) {
	d := New(Config{})
	ds := dates(4)
	// ZZZ jumps on the earlier date, AAA on the later one; output must be
	// date-ordered, not symbol-ordered.
	bars := map[string][]types.Bar{
		"ZZZ": {
			flatBar(ds[0], 100, 1000),
			{Date: ds[1], Open: 100, High: 110, Low: 100, Close: 110, Volume: 1000},
		},
		"AAA": {
			flatBar(ds[2], 100, 1000),
			{Date: ds[3], Open: 100, High: 110, Low: 100, Close: 110, Volume: 1000},
		},
	}

	events, err := d.Detect(context.Background(), bars, nil, testNow)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].Symbol != "ZZZ" || events[1].Symbol != "AAA" {
		t.Errorf("Expected date order ZZZ then AAA, got %s then %s",
			events[0].Symbol, events[1].Symbol)
	}
}

func TestDetectCancellation(t *testing.T) {
	d := New(Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ds := dates(2)
	bars := map[string][]types.Bar{"AAPL": {flatBar(ds[0], 100, 1000), flatBar(ds[1], 100, 1000)}}
	if _, err := d.Detect(ctx, bars, nil, testNow); err == nil {
		t.Error("Expected error from a cancelled context")
	}
}

func TestNewsEventCutoff(t *testing.T) {
	d := New(Config{})
	an := types.ArticleAnalysis{
		Article:             types.Article{Title: "AAPL update", Symbol: "AAPL", Date: "2024-03-01"},
		CandidateType:       types.EarningsAnnouncement,
		CandidateConfidence: 0.5,
	}
	events, err := d.Detect(context.Background(), nil, []types.ArticleAnalysis{an}, testNow)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Expected low-confidence candidate to be dropped, got %d events", len(events))
	}
}

func TestNewsEventSymbolFromTitle(t *testing.T) {
	d := New(Config{})
	an := types.ArticleAnalysis{
		Article:             types.Article{Title: "Shares of AAPL rally on earnings beat"},
		CandidateType:       types.EarningsAnnouncement,
		CandidateConfidence: 0.9,
	}
	events, err := d.Detect(context.Background(), nil, []types.ArticleAnalysis{an}, testNow)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].Symbol != "AAPL" {
		t.Errorf("Expected symbol AAPL from the title, got %s", events[0].Symbol)
	}
	// No article date: falls back to the batch day.
	if events[0].Date != testNow.Format(types.DateLayout) {
		t.Errorf("Expected fallback date %s, got %s", testNow.Format(types.DateLayout), events[0].Date)
	}
}

func TestNewsEventUnresolvableSymbolSkipped(t *testing.T) {
	d := New(Config{})
	an := types.ArticleAnalysis{
		Article:             types.Article{Title: "markets drift lower on thin volume"},
		CandidateType:       types.RegulatoryChange,
		CandidateConfidence: 0.9,
	}
	events, err := d.Detect(context.Background(), nil, []types.ArticleAnalysis{an}, testNow)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Expected event without a resolvable symbol to be skipped, got %d", len(events))
	}
}

func TestNewsEventOverlongSymbolSkipped(t *testing.T) {
	d := New(Config{})
	// Longer than the database's fixed-width symbol field.
	an := types.ArticleAnalysis{
		Article: types.Article{
			Title:  "merger talks confirmed",
			Symbol: "VERYLONGSYMBOLNAME20",
			Date:   "2024-03-01",
		},
		CandidateType:       types.MergerAcquisition,
		CandidateConfidence: 0.9,
	}
	events, err := d.Detect(context.Background(), nil, []types.ArticleAnalysis{an}, testNow)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Expected over-long symbol to be skipped, got %d events", len(events))
	}
}

func TestFirstTicker(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Shares of AAPL rally", "AAPL"},
		{"TCS announces merger", "TCS"},
		{"Acme announces merger", ""},
		{"NASDAQ listing ahead for RELIANCE", ""},
		{"no tickers here", ""},
		{"", ""},
		{"A merger", "A"},
		{"earnings (MSFT) beat", "MSFT"},
	}
	for _, tc := range cases {
		if got := FirstTicker(tc.in); got != tc.want {
			t.Errorf("FirstTicker(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := New(Config{}).Config()
	if cfg.PriceThreshold != 0.05 {
		t.Errorf("Expected default price threshold 0.05, got %f", cfg.PriceThreshold)
	}
	if cfg.VolumeThreshold != 3.0 {
		t.Errorf("Expected default volume threshold 3.0, got %f", cfg.VolumeThreshold)
	}
	if cfg.ATRThreshold != 2.0 {
		t.Errorf("Expected default ATR threshold 2.0, got %f", cfg.ATRThreshold)
	}
	if cfg.NewsCutoff != 0.6 {
		t.Errorf("Expected default news cutoff 0.6, got %f", cfg.NewsCutoff)
	}
}
