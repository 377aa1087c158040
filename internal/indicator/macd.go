package indicator

// MACDResult holds the three aligned MACD outputs.
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes the moving average convergence/divergence: the fast EMA minus
// the slow EMA, its signal-period EMA, and their difference. Warm-up
// propagates, so the histogram is valid only where all three inputs are.
func MACD(values []float64, fast, slow, signal int) (MACDResult, error) {
	emaFast, err := EMA(values, fast)
	if err != nil {
		return MACDResult{}, err
	}
	emaSlow, err := EMA(values, slow)
	if err != nil {
		return MACDResult{}, err
	}

	macd := warmup(len(values))
	for i := range values {
		if !IsWarmup(emaFast[i]) && !IsWarmup(emaSlow[i]) {
			macd[i] = emaFast[i] - emaSlow[i]
		}
	}

	signalLine, err := EMA(macd, signal)
	if err != nil {
		return MACDResult{}, err
	}

	hist := warmup(len(values))
	for i := range values {
		if !IsWarmup(macd[i]) && !IsWarmup(signalLine[i]) {
			hist[i] = macd[i] - signalLine[i]
		}
	}
	return MACDResult{MACD: macd, Signal: signalLine, Histogram: hist}, nil
}
