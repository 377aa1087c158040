package indicator

import (
	"fmt"
	"math"

	"market-event-monitor/internal/types"
)

// TrueRange computes the per-bar true range. Position 0 has no previous
// close and is warm-up.
func TrueRange(bars []types.Bar) []float64 {
	out := warmup(len(bars))
	for i := 1; i < len(bars); i++ {
		hl := bars[i].High - bars[i].Low
		hc := math.Abs(bars[i].High - bars[i-1].Close)
		lc := math.Abs(bars[i].Low - bars[i-1].Close)
		out[i] = math.Max(hl, math.Max(hc, lc))
	}
	return out
}

// ATR computes the Wilder-smoothed average true range, seeded at index
// period with the simple mean of the first period true ranges. The first
// period positions are warm-up.
func ATR(bars []types.Bar, period int) ([]float64, error) {
	if err := checkPeriod(period); err != nil {
		return nil, err
	}
	if len(bars) < period+1 {
		return nil, fmt.Errorf("%w: need %d bars, have %d", ErrInsufficientData, period+1, len(bars))
	}

	tr := TrueRange(bars)
	out := warmup(len(bars))

	sum := 0.0
	for i := 1; i <= period; i++ {
		sum += tr[i]
	}
	out[period] = sum / float64(period)

	for i := period + 1; i < len(bars); i++ {
		out[i] = (out[i-1]*float64(period-1) + tr[i]) / float64(period)
	}
	return out, nil
}
