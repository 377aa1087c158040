// Package impact maps detected events to a bounded impact score and a
// defensive-strategy recommendation.
package impact

import (
	"math"

	"market-event-monitor/internal/types"
)

// Thresholds are the detector trigger levels; price-derived impacts are
// scaled against the threshold of the rule that fired.
type Thresholds struct {
	Price  float64
	Volume float64
	ATR    float64
}

type Scorer struct {
	thresholds Thresholds
}

func NewScorer(t Thresholds) *Scorer {
	return &Scorer{thresholds: t}
}

// Score computes the impact in [-10, 10]. News events blend magnitude
// (candidate confidence) with sentiment; price-derived events scale the
// rule's magnitude against its trigger threshold.
func (s *Scorer) Score(ev types.DetectedEvent) int8 {
	var raw float64
	if ev.Type.PriceDerived() {
		theta := s.ruleThreshold(ev.Type)
		scaled := math.Min(math.Abs(ev.Magnitude)/theta, 1.0)
		raw = 10.0 * sign(ev.Magnitude) * scaled
	} else {
		raw = 5.0*ev.Magnitude + 5.0*float64(ev.Sentiment)
	}
	return clamp(int(math.Round(raw)))
}

func (s *Scorer) ruleThreshold(t types.EventType) float64 {
	switch t {
	case types.PriceJump, types.PriceDrop:
		return s.thresholds.Price
	case types.VolumeSpike:
		return s.thresholds.Volume
	default:
		return s.thresholds.ATR
	}
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func clamp(v int) int8 {
	if v > 10 {
		return 10
	}
	if v < -10 {
		return -10
	}
	return int8(v)
}

// Recommendation suggests a defensive posture for the event. Purely
// advisory text; nothing downstream parses it.
func Recommendation(ev types.DetectedEvent, score int8) string {
	switch ev.Type {
	case types.PriceDrop, types.CorporateScandal, types.Layoffs:
		if score <= -7 {
			return "REDUCE: severe negative event, consider trimming exposure and tightening stops"
		}
		return "HEDGE: negative event, review stop levels and position size"
	case types.VolatilitySpike:
		return "CAUTION: volatility regime shift, widen stops or reduce position size"
	case types.VolumeSpike:
		return "WATCH: unusual volume, confirm direction before acting"
	case types.PriceJump, types.EarningsAnnouncement, types.ProductLaunch, types.Partnership:
		if score >= 7 {
			return "HOLD_WINNERS: strong positive event, let positions run with trailing stops"
		}
		return "MONITOR: positive event, no defensive action required"
	case types.MergerAcquisition, types.IPO:
		return "REVIEW: structural event, reassess the position thesis"
	case types.RegulatoryChange, types.LeadershipChange:
		return "REASSESS: governance or regulatory shift, re-check fundamentals"
	case types.DividendAnnouncement:
		return "MONITOR: income event, verify payout sustainability"
	}
	if score < 0 {
		return "HEDGE: unclassified negative signal, review exposure"
	}
	return "MONITOR: no defensive action required"
}
