package indicator

import (
	"fmt"
	"math"
)

// BollingerResult holds the three aligned Bollinger band outputs.
type BollingerResult struct {
	Middle []float64
	Upper  []float64
	Lower  []float64
}

// Bollinger computes bands at k population standard deviations around the
// period-SMA. The first period-1 positions are warm-up.
func Bollinger(values []float64, period int, k float64) (BollingerResult, error) {
	if err := checkPeriod(period); err != nil {
		return BollingerResult{}, err
	}
	if len(values) < period {
		return BollingerResult{}, fmt.Errorf("%w: need %d values, have %d", ErrInsufficientData, period, len(values))
	}

	middle, err := SMA(values, period)
	if err != nil {
		return BollingerResult{}, err
	}

	upper := warmup(len(values))
	lower := warmup(len(values))
	for i := period - 1; i < len(values); i++ {
		mean := middle[i]
		variance := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := values[j] - mean
			variance += d * d
		}
		sigma := math.Sqrt(variance / float64(period))
		upper[i] = mean + k*sigma
		lower[i] = mean - k*sigma
	}
	return BollingerResult{Middle: middle, Upper: upper, Lower: lower}, nil
}
