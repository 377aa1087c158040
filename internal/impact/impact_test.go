package impact

import (
	"strings"
	"testing"

	"market-event-monitor/internal/types"
)

func defaultScorer() *Scorer {
	return NewScorer(Thresholds{Price: 0.05, Volume: 3.0, ATR: 2.0})
}

func TestScorePriceEvents(t *testing.T) {
	s := defaultScorer()

	cases := []struct {
		name      string
		typ       types.EventType
		magnitude float64
		want      int8
	}{
		{"jump at threshold", types.PriceJump, 0.05, 10},
		{"jump beyond threshold clamps", types.PriceJump, 0.20, 10},
		{"drop at threshold", types.PriceDrop, -0.05, -10},
		{"drop beyond threshold clamps", types.PriceDrop, -0.30, -10},
		{"volume spike at threshold", types.VolumeSpike, 3.0, 10},
		{"volume spike below threshold", types.VolumeSpike, 1.5, 5},
		{"volatility spike at threshold", types.VolatilitySpike, 2.0, 10},
		{"volatility spike half threshold", types.VolatilitySpike, 1.0, 5},
	}

	for _, tc := range cases {
		ev := types.DetectedEvent{Type: tc.typ, Magnitude: tc.magnitude}
		if got := s.Score(ev); got != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestScoreNewsEvents(t *testing.T) {
	s := defaultScorer()

	cases := []struct {
		name      string
		magnitude float64
		sentiment float32
		want      int8
	}{
		{"confident positive", 0.8, 0.6, 7},  // 4 + 3
		{"confident negative", 0.8, -0.8, 0}, // 4 - 4
		{"strong negative", 0.6, -1.0, -2},   // 3 - 5
		{"neutral sentiment", 0.6, 0, 3},
		{"max clamps", 1.0, 1.0, 10},
	}

	for _, tc := range cases {
		ev := types.DetectedEvent{
			Type:      types.EarningsAnnouncement,
			Magnitude: tc.magnitude,
			Sentiment: tc.sentiment,
		}
		if got := s.Score(ev); got != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestScoreBounded(t *testing.T) {
	s := defaultScorer()
	for _, typ := range types.EventTypes() {
		for _, m := range []float64{-100, -1, 0, 1, 100} {
			for _, sent := range []float32{-1, 0, 1} {
				ev := types.DetectedEvent{Type: typ, Magnitude: m, Sentiment: sent}
				got := s.Score(ev)
				if got < -10 || got > 10 {
					t.Fatalf("Score out of range for %s m=%f s=%f: %d", typ, m, sent, got)
				}
			}
		}
	}
}

func TestRecommendationCoversAllTypes(t *testing.T) {
	for _, typ := range types.EventTypes() {
		ev := types.DetectedEvent{Type: typ, Magnitude: 0.1}
		for _, score := range []int8{-10, -5, 0, 5, 10} {
			if Recommendation(ev, score) == "" {
				t.Errorf("Expected a recommendation for %s at score %d", typ, score)
			}
		}
	}
}

func TestRecommendationSeverity(t *testing.T) {
	ev := types.DetectedEvent{Type: types.PriceDrop, Magnitude: -0.2}
	if got := Recommendation(ev, -10); !strings.HasPrefix(got, "REDUCE") {
		t.Errorf("Expected REDUCE for a severe drop, got %q", got)
	}
	if got := Recommendation(ev, -3); !strings.HasPrefix(got, "HEDGE") {
		t.Errorf("Expected HEDGE for a moderate drop, got %q", got)
	}

	up := types.DetectedEvent{Type: types.PriceJump, Magnitude: 0.2}
	if got := Recommendation(up, 10); !strings.HasPrefix(got, "HOLD_WINNERS") {
		t.Errorf("Expected HOLD_WINNERS for a strong jump, got %q", got)
	}
}
