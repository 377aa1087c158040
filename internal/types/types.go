package types

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the calendar-day form used everywhere in the pipeline,
// including the on-disk event records.
const DateLayout = "2006-01-02"

// MaxSymbolLen bounds symbols to what the event database stores.
const MaxSymbolLen = 16

// ErrParse reports a malformed date or symbol supplied from outside the core.
var ErrParse = errors.New("parse error")

// Bar is one daily OHLCV observation. Immutable once ingested.
type Bar struct {
	Date     string // YYYY-MM-DD
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   float64
}

// Article is a sanitized piece of financial news text.
type Article struct {
	Title  string
	Source string
	URL    string
	Date   string // YYYY-MM-DD
	Body   string
	Symbol string // optional, resolved from the title when empty
}

// SentimentResult is the bag-of-words sentiment of one text.
type SentimentResult struct {
	Score       float64 // [-1, 1]
	Confidence  float64 // [0, 1]
	TopKeywords []string
}

type EntityKind uint8

const (
	EntityPerson EntityKind = iota
	EntityOrg
	EntityLocation
)

func (k EntityKind) String() string {
	switch k {
	case EntityPerson:
		return "PERSON"
	case EntityOrg:
		return "ORG"
	case EntityLocation:
		return "LOCATION"
	}
	return "UNKNOWN"
}

// Entity is a tagged span of article text.
type Entity struct {
	Text string
	Kind EntityKind
}

// ArticleAnalysis is the full text-analyzer output for one article.
type ArticleAnalysis struct {
	Article             Article
	Sentiment           SentimentResult
	Entities            []Entity
	CandidateType       EventType
	CandidateConfidence float64
}

// ParseDate validates a YYYY-MM-DD day string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", ErrParse, s)
	}
	return t, nil
}

// ValidSymbol reports whether s is a short printable-ASCII symbol.
func ValidSymbol(s string) bool {
	if s == "" || len(s) > MaxSymbolLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '!' || s[i] > '~' {
			return false
		}
	}
	return true
}
