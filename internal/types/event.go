package types

// EventType is the closed set of market event kinds the detector can emit.
// The numeric values are stable: they are written to disk as a u8.
type EventType uint8

const (
	PriceJump EventType = iota
	PriceDrop
	VolumeSpike
	VolatilitySpike
	EarningsAnnouncement
	DividendAnnouncement
	MergerAcquisition
	LeadershipChange
	CorporateScandal
	IPO
	Layoffs
	ProductLaunch
	Partnership
	RegulatoryChange
	Unknown

	numEventTypes = iota
)

var eventTypeNames = [numEventTypes]string{
	"PRICE_JUMP",
	"PRICE_DROP",
	"VOLUME_SPIKE",
	"VOLATILITY_SPIKE",
	"EARNINGS_ANNOUNCEMENT",
	"DIVIDEND_ANNOUNCEMENT",
	"MERGER_ACQUISITION",
	"LEADERSHIP_CHANGE",
	"CORPORATE_SCANDAL",
	"IPO",
	"LAYOFFS",
	"PRODUCT_LAUNCH",
	"PARTNERSHIP",
	"REGULATORY_CHANGE",
	"UNKNOWN",
}

func (t EventType) String() string {
	if t >= numEventTypes {
		return "UNKNOWN"
	}
	return eventTypeNames[t]
}

// Valid reports whether t is a member of the closed enumeration.
func (t EventType) Valid() bool { return t < numEventTypes }

// EventTypes returns all members in enumeration order.
func EventTypes() []EventType {
	out := make([]EventType, numEventTypes)
	for i := range out {
		out[i] = EventType(i)
	}
	return out
}

// DetectedEvent is a typed, scored market event. Once appended to the event
// database it is owned by the database and durable.
type DetectedEvent struct {
	ID          uint64
	Symbol      string
	Date        string // YYYY-MM-DD
	Type        EventType
	Description string
	Magnitude   float64
	Sentiment   float32
	Impact      int8 // [-10, 10]
	Source      string
	URL         string
	Timestamp   int64 // unix seconds at detection
}

// PriceDerived reports whether t comes from the price-series rules rather
// than from news text.
func (t EventType) PriceDerived() bool {
	return t == PriceJump || t == PriceDrop || t == VolumeSpike || t == VolatilitySpike
}
