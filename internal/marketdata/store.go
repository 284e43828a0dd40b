package marketdata

import (
	"sync"

	"github.com/shopspring/decimal"

	"fenrir/internal/event"
)

// Tick is one recorded trade print, kept only when tick retention is
// enabled.
type Tick struct {
	Timestamp int64
	Price     decimal.Decimal
	Quantity  uint64
}

// Store is the market-data side of the agent-facing view: last trade
// price plus OHLCV bars over the configured periods, and an optional
// bounded tick history. One Store per ticker; the book's own
// best-bid/ask state is read straight off the LimitOrderBook instead of
// being cached a second time here.
type Store struct {
	mu sync.Mutex

	series map[int]*barSeries

	lastTradePrice decimal.Decimal
	hasLastTrade   bool

	storeTicks bool
	maxTicks   int
	ticks      []Tick
	tickHead   int
	tickLen    int
}

// New creates a Store tracking OHLCV bars for each period in periods
// (simulation ticks per bar) and, if storeTicks, a bounded tick ring
// buffer of capacity maxTicks.
func New(periods []int, storeTicks bool, maxTicks int) *Store {
	series := make(map[int]*barSeries, len(periods))
	for _, p := range periods {
		series[p] = newBarSeries(int64(p))
	}
	s := &Store{series: series, storeTicks: storeTicks, maxTicks: maxTicks}
	if storeTicks && maxTicks > 0 {
		s.ticks = make([]Tick, maxTicks)
	}
	return s
}

// Attach subscribes the store to a ticker's transaction events so it
// updates automatically as the matching engine prints trades.
func (s *Store) Attach(stream *event.Stream, ticker string) {
	stream.Subscribe(event.KindTransaction, func(e event.Event) {
		p := e.Payload.(event.TransactionPayload)
		if p.Ticker != ticker {
			return
		}
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return
		}
		s.RecordTrade(e.Timestamp, price, p.Quantity)
	})
}

// RecordTrade records one trade print: updates last trade price, every
// configured bar series, and the tick ring buffer if enabled.
func (s *Store) RecordTrade(ts int64, price decimal.Decimal, qty uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastTradePrice = price
	s.hasLastTrade = true

	for _, series := range s.series {
		series.record(ts, price, qty)
	}

	if s.storeTicks && s.maxTicks > 0 {
		idx := (s.tickHead + s.tickLen) % s.maxTicks
		s.ticks[idx] = Tick{Timestamp: ts, Price: price, Quantity: qty}
		if s.tickLen < s.maxTicks {
			s.tickLen++
		} else {
			s.tickHead = (s.tickHead + 1) % s.maxTicks
		}
	}
}

// LastTradePrice returns the most recent trade print, if any.
func (s *Store) LastTradePrice() (decimal.Decimal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTradePrice, s.hasLastTrade
}

// Bars returns the bar history for period, nil if that period was not
// configured.
func (s *Store) Bars(period int) []Bar {
	s.mu.Lock()
	defer s.mu.Unlock()
	series, ok := s.series[period]
	if !ok {
		return nil
	}
	return series.snapshot()
}

// RecentTicks returns the last n retained ticks, oldest first. Empty if
// tick retention is disabled.
func (s *Store) RecentTicks(n int) []Tick {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.storeTicks || n <= 0 {
		return nil
	}
	if n > s.tickLen {
		n = s.tickLen
	}
	out := make([]Tick, n)
	start := s.tickHead + s.tickLen - n
	for i := 0; i < n; i++ {
		out[i] = s.ticks[(start+i)%s.maxTicks]
	}
	return out
}
