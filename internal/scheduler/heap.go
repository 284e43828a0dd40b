// Package scheduler implements the run loop's time-priority queue over
// agent activations: a min-priority queue on (due_time, agent_id),
// popped once per run-loop iteration.
package scheduler

import "container/heap"

// activation is one (due_time, agent_id) entry.
type activation struct {
	dueTime int64
	agentID uint64
}

// activationHeap implements container/heap.Interface ordered by
// (dueTime, agentID) ascending.
type activationHeap []activation

func (h activationHeap) Len() int { return len(h) }

func (h activationHeap) Less(i, j int) bool {
	if h[i].dueTime == h[j].dueTime {
		return h[i].agentID < h[j].agentID
	}
	return h[i].dueTime < h[j].dueTime
}

func (h activationHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *activationHeap) Push(x any) {
	*h = append(*h, x.(activation))
}

func (h *activationHeap) Pop() any {
	old := *h
	n := len(old)
	a := old[n-1]
	old[n-1] = activation{}
	*h = old[:n-1]
	return a
}

var _ heap.Interface = (*activationHeap)(nil)
