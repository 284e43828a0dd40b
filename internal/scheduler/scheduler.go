package scheduler

import (
	"container/heap"
	"fmt"
)

// Scheduler is the run loop's min-priority queue over agent activations
// plus the registry of known agent ids. It holds no knowledge of agent
// behavior; Reschedule only re-inserts the due time an agent's own
// Activate computed (push-after-pop, no decrease-key — simpler and
// sufficient since an agent is only ever scheduled once at a time).
type Scheduler struct {
	pq      activationHeap
	known   map[uint64]bool
	retired map[uint64]bool
}

// New returns an empty scheduler.
func New() *Scheduler {
	return &Scheduler{known: make(map[uint64]bool), retired: make(map[uint64]bool)}
}

// Register inserts agentID's first activation at dueTime. Returns an
// error if agentID is already known. That error does not wrap
// common.ErrDuplicateRegistration; the Simulation wraps it with that
// sentinel before surfacing it to callers.
func (s *Scheduler) Register(agentID uint64, dueTime int64) error {
	if s.known[agentID] {
		return fmt.Errorf("scheduler: agent %d already registered", agentID)
	}
	s.known[agentID] = true
	heap.Push(&s.pq, activation{dueTime: dueTime, agentID: agentID})
	return nil
}

// PeekNext returns the earliest-due, non-retired activation without
// removing it.
func (s *Scheduler) PeekNext() (dueTime int64, agentID uint64, ok bool) {
	s.dropRetired()
	if len(s.pq) == 0 {
		return 0, 0, false
	}
	top := s.pq[0]
	return top.dueTime, top.agentID, true
}

// PopNext removes and returns the earliest-due, non-retired activation.
func (s *Scheduler) PopNext() (dueTime int64, agentID uint64, ok bool) {
	s.dropRetired()
	if len(s.pq) == 0 {
		return 0, 0, false
	}
	a := heap.Pop(&s.pq).(activation)
	return a.dueTime, a.agentID, true
}

// Reschedule re-inserts agentID at its next due time, as computed by the
// agent's own Activate call. The scheduler never computes inter-arrival
// times itself. A no-op if agentID was retired in the meantime.
func (s *Scheduler) Reschedule(agentID uint64, dueTime int64) {
	if s.retired[agentID] {
		return
	}
	heap.Push(&s.pq, activation{dueTime: dueTime, agentID: agentID})
}

// Retire removes agentID from the schedule. Any already-queued entry for
// it is dropped lazily, the next time it would have surfaced from
// Peek/PopNext, rather than scanned out of the heap immediately.
func (s *Scheduler) Retire(agentID uint64) {
	s.retired[agentID] = true
	delete(s.known, agentID)
}

func (s *Scheduler) dropRetired() {
	for len(s.pq) > 0 && s.retired[s.pq[0].agentID] {
		heap.Pop(&s.pq)
	}
}

// Len reports the number of pending activations.
func (s *Scheduler) Len() int { return len(s.pq) }
