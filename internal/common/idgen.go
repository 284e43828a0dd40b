package common

import "sync/atomic"

// IDGenerator is a monotonic, process-unique counter. Spec.md §9 requires
// order ids and event ids come from "a single owned counter inside the
// Simulation passed by reference to constructors; never as module-level
// mutable state" — this is that counter. The Simulation owns one instance
// per id space (orders, events) and passes it to the constructors that
// need it, rather than any package exposing a package-level next_id.
type IDGenerator struct {
	next uint64
}

// NewIDGenerator returns a generator whose first Next() is 1; 0 is
// reserved so a zero-valued uint64 ID field can mean "unset" when needed.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{next: 0}
}

// Next returns the next id in the sequence, starting at 1.
func (g *IDGenerator) Next() uint64 {
	return atomic.AddUint64(&g.next, 1)
}

// Peek returns the id Next() would return without consuming it.
func (g *IDGenerator) Peek() uint64 {
	return atomic.LoadUint64(&g.next) + 1
}
