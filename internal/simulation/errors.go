package simulation

import "fmt"

// InvariantViolation is the one fatal error this package raises: a
// crossed book, a negative aggregate, or an event id regression. It
// carries the diagnostic snapshot the run loop dumps before terminating
// (clock, last event id, top-of-book per ticker).
type InvariantViolation struct {
	Reason      string
	Clock       int64
	LastEventID uint64
	TopOfBook   map[string]TopOfBook
}

// TopOfBook is a snapshot of one ticker's best prices at the moment a
// fatal invariant was detected.
type TopOfBook struct {
	Ticker  string
	BestBid string
	HasBid  bool
	BestAsk string
	HasAsk  bool
}

func (v *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation at clock=%d (last_event_id=%d): %s", v.Clock, v.LastEventID, v.Reason)
}
