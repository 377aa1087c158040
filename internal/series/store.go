package series

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"market-event-monitor/internal/types"
)

// ErrInvalidBar reports a bar that violates the ordering or range invariant.
var ErrInvalidBar = errors.New("invalid bar")

// Store holds per-symbol ordered daily bars. It is a scratchpad for a single
// processing batch; durable state lives in the event database.
type Store struct {
	mu   sync.RWMutex
	data map[string][]types.Bar
}

func NewStore() *Store {
	return &Store{data: make(map[string][]types.Bar)}
}

// Put replaces or extends the series for symbol. Incoming bars must be in
// strictly increasing date order; bars whose dates already exist are
// overwritten, so replaying a feed is idempotent.
func (s *Store) Put(symbol string, bars []types.Bar) error {
	if !types.ValidSymbol(symbol) {
		return fmt.Errorf("%w: bad symbol %q", types.ErrParse, symbol)
	}
	if err := Validate(bars); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.data[symbol]
	if len(existing) == 0 {
		s.data[symbol] = append([]types.Bar(nil), bars...)
		return nil
	}

	merged := make(map[string]types.Bar, len(existing)+len(bars))
	for _, b := range existing {
		merged[b.Date] = b
	}
	for _, b := range bars {
		merged[b.Date] = b
	}
	out := make([]types.Bar, 0, len(merged))
	for _, b := range merged {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	s.data[symbol] = out
	return nil
}

// Get returns the contiguous subslice of bars with from <= date < to.
// Empty from or to leaves that end unbounded.
func (s *Store) Get(symbol, from, to string) []types.Bar {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bars := s.data[symbol]
	lo := 0
	if from != "" {
		lo = sort.Search(len(bars), func(i int) bool { return bars[i].Date >= from })
	}
	hi := len(bars)
	if to != "" {
		hi = sort.Search(len(bars), func(i int) bool { return bars[i].Date >= to })
	}
	if lo >= hi {
		return nil
	}
	out := make([]types.Bar, hi-lo)
	copy(out, bars[lo:hi])
	return out
}

// Symbols returns all symbols with at least one bar, sorted.
func (s *Store) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.data))
	for sym := range s.data {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of bars held for symbol.
func (s *Store) Len(symbol string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[symbol])
}

// Validate checks the bar invariants: parseable strictly increasing dates,
// finite prices with low <= open,close <= high, and non-negative volume.
func Validate(bars []types.Bar) error {
	prev := ""
	for i, b := range bars {
		if _, err := types.ParseDate(b.Date); err != nil {
			return fmt.Errorf("%w: bar %d: %v", ErrInvalidBar, i, err)
		}
		if b.Date <= prev {
			return fmt.Errorf("%w: bar %d: date %s not after %s", ErrInvalidBar, i, b.Date, prev)
		}
		prev = b.Date

		for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.AdjClose, b.Volume} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: bar %d (%s): non-finite field", ErrInvalidBar, i, b.Date)
			}
		}
		if b.Low > b.Open || b.Low > b.Close || b.High < b.Open || b.High < b.Close {
			return fmt.Errorf("%w: bar %d (%s): low/high do not bound open/close", ErrInvalidBar, i, b.Date)
		}
		if b.Volume < 0 {
			return fmt.Errorf("%w: bar %d (%s): negative volume", ErrInvalidBar, i, b.Date)
		}
	}
	return nil
}
