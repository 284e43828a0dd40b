package event

import "sync"

// Subscriber receives every appended event of a kind it subscribed to.
type Subscriber func(Event)

// Stream is the Simulation's sole event log: append-only, monotonically
// id'd, and the only producer is the Simulation itself.
type Stream struct {
	mu          sync.Mutex
	events      []Event
	subscribers map[Kind][]Subscriber
	lastID      uint64
	lastTs      int64
}

// NewStream returns an empty stream.
func NewStream() *Stream {
	return &Stream{subscribers: make(map[Kind][]Subscriber)}
}

// Subscribe registers fn to be called, synchronously, for every future
// appended event of the given kind.
func (s *Stream) Subscribe(kind Kind, fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers[kind] = append(s.subscribers[kind], fn)
}

// Append adds e to the stream and fans it out to subscribers of its kind.
// It panics on two invariants: event ids must strictly increase and
// timestamps must never regress. The Simulation is expected to construct
// events only through its own IDGenerator, so these should never fire in
// practice; they exist as a last line of defense against a future bug
// that hands Append a mis-minted event.
func (s *Stream) Append(e Event) {
	s.mu.Lock()
	if e.EventID <= s.lastID {
		s.mu.Unlock()
		panic("event stream: event id did not strictly increase")
	}
	if e.Timestamp < s.lastTs {
		s.mu.Unlock()
		panic("event stream: timestamp regressed")
	}
	s.lastID = e.EventID
	s.lastTs = e.Timestamp
	s.events = append(s.events, e)
	subs := append([]Subscriber(nil), s.subscribers[e.Kind()]...)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(e)
	}
}

// AppendAll appends a batch in order, e.g. the []Event a single matching
// engine Process call returns.
func (s *Stream) AppendAll(events []Event) {
	for _, e := range events {
		s.Append(e)
	}
}

// Len returns the number of events recorded so far.
func (s *Stream) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// All returns a copy of the full event log, safe for a caller to retain.
func (s *Stream) All() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// LastEventID returns the id of the most recently appended event, or 0 if
// the stream is empty.
func (s *Stream) LastEventID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastID
}
