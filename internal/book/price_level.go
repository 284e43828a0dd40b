// Package book implements the price-time-priority limit order book:
// PriceLevel and LimitOrderBook.
package book

import (
	"container/list"
	"fmt"

	"fenrir/internal/order"
)

// PriceLevel is the FIFO queue of resting orders at a single price. It is
// created on first use and destroyed by the owning LimitOrderBook once
// empty.
type PriceLevel struct {
	Price   PriceKey
	orders  *list.List // of *order.Order, head = oldest
	volume  uint64
	count   int

	// lastPartialOrderID is the one-shot head-reinsertion marker: set
	// whenever an order is popped off this level via PopHead or left
	// partially consumed by PopToMeetDemand (which clears it when no order
	// is left partial), and cleared by the very next Enqueue regardless of
	// whether it matched, so a partial fill cannot jump later queues.
	lastPartialOrderID *uint64
}

// Fill is one (order, filled quantity) pair produced by PopToMeetDemand.
type Fill struct {
	Order *order.Order
	Qty   uint64
}

// NewPriceLevel creates an empty level at the given price.
func NewPriceLevel(price PriceKey) *PriceLevel {
	return &PriceLevel{Price: price, orders: list.New()}
}

// TotalVolume returns the sum of member order quantities, maintained
// incrementally and never recomputed.
func (pl *PriceLevel) TotalVolume() uint64 { return pl.volume }

// Count returns the number of resting orders.
func (pl *PriceLevel) Count() int { return pl.count }

// IsEmpty reports whether the level has no resting orders.
func (pl *PriceLevel) IsEmpty() bool { return pl.count == 0 }

// Enqueue appends o at the tail, unless o is the order the marker names
// (popped via PopHead or partially consumed by PopToMeetDemand, with no
// Enqueue since: the partial-refill policy), in
// which case it is inserted at the head instead. Panics if o's price
// doesn't match the level's, since that would corrupt the book's price
// index invariant — callers (LimitOrderBook.Add) guarantee this holds.
func (pl *PriceLevel) Enqueue(o *order.Order) *list.Element {
	if o.Price == nil || !pl.Price.equalsDecimal(*o.Price) {
		panic(fmt.Sprintf("price level %s: order %d has mismatched price", pl.Price, o.OrderID))
	}

	var elem *list.Element
	if pl.lastPartialOrderID != nil && *pl.lastPartialOrderID == o.OrderID {
		elem = pl.orders.PushFront(o)
	} else {
		elem = pl.orders.PushBack(o)
	}
	pl.lastPartialOrderID = nil

	pl.count++
	pl.volume += o.Quantity
	return elem
}

// PeekHead returns the oldest resting order without removing it.
func (pl *PriceLevel) PeekHead() *order.Order {
	if pl.orders.Len() == 0 {
		return nil
	}
	return pl.orders.Front().Value.(*order.Order)
}

// PopHead removes and returns the oldest resting order, recording it as
// the level's partial-refill candidate (see Enqueue).
func (pl *PriceLevel) PopHead() *order.Order {
	front := pl.orders.Front()
	if front == nil {
		return nil
	}
	o := pl.remove(front)
	id := o.OrderID
	pl.lastPartialOrderID = &id
	return o
}

// Remove removes a specific resting order by id in O(n) against this
// level's own queue (the owning LimitOrderBook keeps the O(1) handle via
// its order index and calls removeElement directly; this method exists
// for callers, such as tests, that only have the id).
func (pl *PriceLevel) Remove(orderID uint64) *order.Order {
	for e := pl.orders.Front(); e != nil; e = e.Next() {
		if e.Value.(*order.Order).OrderID == orderID {
			return pl.remove(e)
		}
	}
	return nil
}

// removeElement removes a known list element in O(1), the path the book's
// order index uses for cancellation.
func (pl *PriceLevel) removeElement(e *list.Element) *order.Order {
	return pl.remove(e)
}

func (pl *PriceLevel) remove(e *list.Element) *order.Order {
	o := pl.orders.Remove(e).(*order.Order)
	pl.count--
	pl.volume -= o.Quantity
	return o
}

// PopToMeetDemand walks the level head-to-tail, consuming resting orders
// until demand is met or the level empties. The last
// partially-consumed order is removed from the queue and its
// reinsertion, if any, is the caller's responsibility via Enqueue.
func (pl *PriceLevel) PopToMeetDemand(demand uint64) []Fill {
	var fills []Fill
	for pl.orders.Len() > 0 && demand > 0 {
		front := pl.orders.Front()
		o := front.Value.(*order.Order)

		if o.Quantity <= demand {
			pl.remove(front)
			fills = append(fills, Fill{Order: o, Qty: o.Quantity})
			demand -= o.Quantity
		} else {
			pl.remove(front)
			fills = append(fills, Fill{Order: o, Qty: demand})
			id := o.OrderID
			pl.lastPartialOrderID = &id
			demand = 0
			return fills
		}
	}
	pl.lastPartialOrderID = nil
	return fills
}

// Orders returns a snapshot slice of the resting orders, head first. Used
// by tests and diagnostics; the live queue is never exposed directly.
func (pl *PriceLevel) Orders() []*order.Order {
	out := make([]*order.Order, 0, pl.count)
	for e := pl.orders.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*order.Order))
	}
	return out
}
