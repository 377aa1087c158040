// Package indicator computes standard technical indicators over daily bar
// series. Every function is pure and returns an output aligned with its
// input: position i of the output corresponds to bar i, and positions where
// fewer than the required observations are available hold the warm-up
// sentinel (NaN).
package indicator

import (
	"errors"
	"fmt"
	"math"

	"market-event-monitor/internal/types"
)

// ErrInsufficientData reports a series shorter than the requested period.
var ErrInsufficientData = errors.New("insufficient data")

// IsWarmup reports whether v is the warm-up sentinel.
func IsWarmup(v float64) bool { return math.IsNaN(v) }

func warmup(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func checkPeriod(period int) error {
	if period < 2 {
		return fmt.Errorf("period must be >= 2, got %d", period)
	}
	return nil
}

// firstValid returns the index of the first non-warm-up value, or -1.
func firstValid(values []float64) int {
	for i, v := range values {
		if !IsWarmup(v) {
			return i
		}
	}
	return -1
}

// Closes extracts the close column.
func Closes(bars []types.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Volumes extracts the volume column.
func Volumes(bars []types.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}

// SMA computes the simple moving average with the given period. The first
// period-1 positions are warm-up.
func SMA(values []float64, period int) ([]float64, error) {
	if err := checkPeriod(period); err != nil {
		return nil, err
	}
	if len(values) < period {
		return nil, fmt.Errorf("%w: need %d values, have %d", ErrInsufficientData, period, len(values))
	}

	out := warmup(len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out, nil
}

// EMA computes the exponential moving average with alpha = 2/(period+1),
// seeded with the simple average of the first period values. Leading warm-up
// positions in the input are skipped, so EMA chains (as in MACD) compose.
func EMA(values []float64, period int) ([]float64, error) {
	if err := checkPeriod(period); err != nil {
		return nil, err
	}
	start := firstValid(values)
	if start < 0 || len(values)-start < period {
		return nil, fmt.Errorf("%w: need %d values, have %d", ErrInsufficientData, period, len(values)-start)
	}

	out := warmup(len(values))
	sum := 0.0
	for i := start; i < start+period; i++ {
		sum += values[i]
	}
	seed := start + period - 1
	out[seed] = sum / float64(period)

	alpha := 2.0 / float64(period+1)
	for i := seed + 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out, nil
}
