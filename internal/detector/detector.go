// Package detector fuses price-series anomalies with news-derived candidate
// events into typed DetectedEvent records.
package detector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"market-event-monitor/internal/indicator"
	"market-event-monitor/internal/types"
)

const (
	volumeSMAPeriod = 20
	atrPeriod       = 14
	atrLookback     = 20
)

// Config holds the rule thresholds. Zero values fall back to defaults.
type Config struct {
	PriceThreshold  float64 // close-to-close move, default 0.05
	VolumeThreshold float64 // multiple of the 20-bar volume SMA, default 3.0
	ATRThreshold    float64 // multiple of ATR(14) twenty bars ago, default 2.0
	NewsCutoff      float64 // minimum candidate confidence, default 0.6
}

func (c Config) withDefaults() Config {
	if c.PriceThreshold <= 0 {
		c.PriceThreshold = 0.05
	}
	if c.VolumeThreshold <= 0 {
		c.VolumeThreshold = 3.0
	}
	if c.ATRThreshold <= 0 {
		c.ATRThreshold = 2.0
	}
	if c.NewsCutoff <= 0 {
		c.NewsCutoff = 0.6
	}
	return c
}

type Detector struct {
	cfg Config
}

func New(cfg Config) *Detector {
	return &Detector{cfg: cfg.withDefaults()}
}

// Config returns the effective thresholds after defaulting.
func (d *Detector) Config() Config { return d.cfg }

// Detect produces one batch of events: news events in input order, followed
// by price-series events in bar-date order. The context is checked between
// events, so cancellation discards the remainder of the batch.
func (d *Detector) Detect(ctx context.Context, bars map[string][]types.Bar, analyses []types.ArticleAnalysis, now time.Time) ([]types.DetectedEvent, error) {
	var out []types.DetectedEvent

	for _, an := range analyses {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if ev, ok := d.newsEvent(an, now); ok {
			out = append(out, ev)
		}
	}

	symbols := make([]string, 0, len(bars))
	for sym := range bars {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	var priceEvents []types.DetectedEvent
	for _, sym := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		priceEvents = append(priceEvents, d.PriceEvents(sym, bars[sym], now)...)
	}
	sort.SliceStable(priceEvents, func(i, j int) bool {
		return priceEvents[i].Date < priceEvents[j].Date
	})

	return append(out, priceEvents...), nil
}

// PriceEvents evaluates the four price-series rules over every bar of one
// symbol. Rules whose indicator is still warming up are skipped; a series
// too short for an indicator simply produces no events from that rule.
func (d *Detector) PriceEvents(symbol string, bars []types.Bar, now time.Time) []types.DetectedEvent {
	var out []types.DetectedEvent
	ts := now.Unix()

	volSMA := maybeSMA(indicator.Volumes(bars), volumeSMAPeriod)
	atr := maybeATR(bars, atrPeriod)

	for i := 1; i < len(bars); i++ {
		prevClose := bars[i-1].Close
		if prevClose != 0 {
			change := bars[i].Close/prevClose - 1
			if change >= d.cfg.PriceThreshold {
				out = append(out, priceEvent(symbol, bars[i].Date, types.PriceJump, change, ts,
					fmt.Sprintf("close moved %+.2f%% day over day", change*100)))
			} else if change <= -d.cfg.PriceThreshold {
				out = append(out, priceEvent(symbol, bars[i].Date, types.PriceDrop, change, ts,
					fmt.Sprintf("close moved %+.2f%% day over day", change*100)))
			}
		}

		if volSMA != nil && !indicator.IsWarmup(volSMA[i]) && volSMA[i] > 0 {
			if ratio := bars[i].Volume / volSMA[i]; ratio >= d.cfg.VolumeThreshold {
				out = append(out, priceEvent(symbol, bars[i].Date, types.VolumeSpike, ratio, ts,
					fmt.Sprintf("volume at %.1fx its 20-day average", ratio)))
			}
		}

		if atr != nil && i >= atrLookback && !indicator.IsWarmup(atr[i]) && !indicator.IsWarmup(atr[i-atrLookback]) && atr[i-atrLookback] > 0 {
			if ratio := atr[i] / atr[i-atrLookback]; ratio >= d.cfg.ATRThreshold {
				out = append(out, priceEvent(symbol, bars[i].Date, types.VolatilitySpike, ratio, ts,
					fmt.Sprintf("ATR(14) at %.1fx its level 20 bars ago", ratio)))
			}
		}
	}
	return out
}

func priceEvent(symbol, date string, t types.EventType, magnitude float64, ts int64, desc string) types.DetectedEvent {
	return types.DetectedEvent{
		Symbol:      symbol,
		Date:        date,
		Type:        t,
		Description: desc,
		Magnitude:   magnitude,
		Timestamp:   ts,
	}
}

// newsEvent turns one analyzed article into an event when its candidate
// confidence clears the cutoff and a symbol can be resolved.
func (d *Detector) newsEvent(an types.ArticleAnalysis, now time.Time) (types.DetectedEvent, bool) {
	if an.CandidateConfidence < d.cfg.NewsCutoff {
		return types.DetectedEvent{}, false
	}
	symbol := an.Article.Symbol
	if symbol == "" {
		symbol = FirstTicker(an.Article.Title)
	}
	if !types.ValidSymbol(symbol) {
		return types.DetectedEvent{}, false
	}
	date := an.Article.Date
	if date == "" {
		date = now.Format(types.DateLayout)
	}
	return types.DetectedEvent{
		Symbol:      symbol,
		Date:        date,
		Type:        an.CandidateType,
		Description: an.Article.Title,
		Magnitude:   an.CandidateConfidence,
		Sentiment:   float32(an.Sentiment.Score),
		Source:      an.Article.Source,
		URL:         an.Article.URL,
		Timestamp:   now.Unix(),
	}, true
}

// FirstTicker returns the first ticker-shaped token in s: a run of one to
// five ASCII uppercase letters bounded by non-letters. Empty when none.
func FirstTicker(s string) string {
	i := 0
	for i < len(s) {
		if !isLetter(s[i]) {
			i++
			continue
		}
		j := i
		upper := true
		for j < len(s) && isLetter(s[j]) {
			if s[j] < 'A' || s[j] > 'Z' {
				upper = false
			}
			j++
		}
		if upper && j-i >= 1 && j-i <= 5 {
			return s[i:j]
		}
		i = j
	}
	return ""
}

func isLetter(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z'
}

// maybeSMA returns nil when the series is too short; the caller treats a
// nil column as "rule not applicable".
func maybeSMA(values []float64, period int) []float64 {
	out, err := indicator.SMA(values, period)
	if err != nil {
		return nil
	}
	return out
}

func maybeATR(bars []types.Bar, period int) []float64 {
	out, err := indicator.ATR(bars, period)
	if err != nil {
		return nil
	}
	return out
}
