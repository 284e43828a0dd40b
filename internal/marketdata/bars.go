// Package marketdata aggregates the trade tape into OHLCV bars and an
// optional bounded tick history kept in a fixed-capacity ring buffer. The
// agent-facing market view exposes the bars and the last trade price; the
// tick history is read through Store.RecentTicks only.
package marketdata

import "github.com/shopspring/decimal"

// Bar is one completed (or in-progress) OHLCV aggregation.
type Bar struct {
	PeriodStart            int64
	Open, High, Low, Close decimal.Decimal
	Volume                 uint64
}

// barSeries accumulates bars of one fixed period width (in simulation
// ticks), mirroring market_data.py's current_bars/ohlcv_data split: one
// open bar plus a completed history.
type barSeries struct {
	period    int64
	completed []Bar
	current   *Bar
}

func newBarSeries(period int64) *barSeries {
	return &barSeries{period: period}
}

func (s *barSeries) record(ts int64, price decimal.Decimal, qty uint64) {
	bucket := (ts / s.period) * s.period

	if s.current == nil || s.current.PeriodStart < bucket {
		if s.current != nil {
			s.completed = append(s.completed, *s.current)
		}
		s.current = &Bar{PeriodStart: bucket, Open: price, High: price, Low: price, Close: price, Volume: qty}
		return
	}

	if price.GreaterThan(s.current.High) {
		s.current.High = price
	}
	if price.LessThan(s.current.Low) {
		s.current.Low = price
	}
	s.current.Close = price
	s.current.Volume += qty
}

// snapshot returns the completed history plus the in-progress bar, the
// same shape get_ohlcv returns (completed frame + the live current_bar).
func (s *barSeries) snapshot() []Bar {
	if s.current == nil {
		out := make([]Bar, len(s.completed))
		copy(out, s.completed)
		return out
	}
	out := make([]Bar, len(s.completed)+1)
	copy(out, s.completed)
	out[len(s.completed)] = *s.current
	return out
}
