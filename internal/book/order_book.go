package book

import (
	"container/list"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"

	"fenrir/internal/common"
	"fenrir/internal/event"
	"fenrir/internal/order"
)

// PriceKey is the btree sort key for one side of the book. Both sides are
// stored as "ascending by key means ascending priority", so the best price
// is always the minimum key: asks sort by price directly, bids sort by the
// negated price.
type PriceKey struct {
	price decimal.Decimal
	side  common.Side
}

func newPriceKey(price decimal.Decimal, side common.Side) PriceKey {
	return PriceKey{price: price, side: side}
}

func (k PriceKey) sortKey() decimal.Decimal {
	if k.side == common.Buy {
		return k.price.Neg()
	}
	return k.price
}

func (k PriceKey) equalsDecimal(d decimal.Decimal) bool { return k.price.Equal(d) }

func (k PriceKey) String() string { return k.price.String() }

func lessPriceKey(a, b PriceKey) bool { return a.sortKey().LessThan(b.sortKey()) }

type indexEntry struct {
	side  common.Side
	level *PriceLevel
	elem  *list.Element
}

// LimitOrderBook is the single-ticker order book: two btree-indexed ladders
// of PriceLevel plus an order index giving O(log P) cancel-by-id (O(1) to
// find and unlink the order, O(log P) to drop a level it leaves empty).
type LimitOrderBook struct {
	Ticker string
	tick   common.TickSize

	bids *btree.BTreeG[*PriceLevel]
	asks *btree.BTreeG[*PriceLevel]

	index map[uint64]*indexEntry
}

// New creates an empty book for ticker.
func New(ticker string, tick common.TickSize) *LimitOrderBook {
	less := func(a, b *PriceLevel) bool { return lessPriceKey(a.Price, b.Price) }
	return &LimitOrderBook{
		Ticker: ticker,
		tick:   tick,
		bids:   btree.NewBTreeG[*PriceLevel](less),
		asks:   btree.NewBTreeG[*PriceLevel](less),
		index:  make(map[uint64]*indexEntry),
	}
}

func (b *LimitOrderBook) ladder(side common.Side) *btree.BTreeG[*PriceLevel] {
	if side == common.Buy {
		return b.bids
	}
	return b.asks
}

// BestBid returns the highest resting bid price and whether one exists.
func (b *LimitOrderBook) BestBid() (decimal.Decimal, bool) {
	pl, ok := b.bids.Min()
	if !ok {
		return decimal.Zero, false
	}
	return pl.Price.price, true
}

// BestAsk returns the lowest resting ask price and whether one exists.
func (b *LimitOrderBook) BestAsk() (decimal.Decimal, bool) {
	pl, ok := b.asks.Min()
	if !ok {
		return decimal.Zero, false
	}
	return pl.Price.price, true
}

// LevelVolume returns the total resting quantity at price on side, 0 if
// there is no such level.
func (b *LimitOrderBook) LevelVolume(side common.Side, price decimal.Decimal) uint64 {
	pl, ok := b.ladder(side).Get(&PriceLevel{Price: newPriceKey(price, side)})
	if !ok {
		return 0
	}
	return pl.TotalVolume()
}

// levelAt returns the level for (side, price), creating it if absent.
func (b *LimitOrderBook) levelAt(side common.Side, price decimal.Decimal) *PriceLevel {
	key := newPriceKey(price, side)
	probe := &PriceLevel{Price: key}
	ladder := b.ladder(side)
	if pl, ok := ladder.Get(probe); ok {
		return pl
	}
	pl := NewPriceLevel(key)
	ladder.Set(pl)
	return pl
}

func (b *LimitOrderBook) dropLevelIfEmpty(side common.Side, pl *PriceLevel) {
	if pl.IsEmpty() {
		b.ladder(side).Delete(pl)
	}
}

// Add rests a limit order in the book, emitting OrderAdded. Market orders
// are never added; the matching engine drops their residual
// instead of calling this. Panics if o is not a limit order, since that
// would be a matching engine bug, not a runtime condition to recover from.
func (b *LimitOrderBook) Add(o *order.Order, ts int64, trigger *uint64, ids *common.IDGenerator) []event.Event {
	if !o.IsLimit() {
		panic(fmt.Sprintf("book: Add called with non-limit order %d", o.OrderID))
	}
	pl := b.levelAt(o.Side, *o.Price)
	elem := pl.Enqueue(o)
	b.index[o.OrderID] = &indexEntry{side: o.Side, level: pl, elem: elem}

	return []event.Event{{
		EventID:        ids.Next(),
		Timestamp:      ts,
		TriggerEventID: trigger,
		Payload:        event.OrderAddedPayload{Ticker: b.Ticker, OrderID: o.OrderID},
	}}
}

// PopTop removes the highest-priority resting order on side (best price,
// then oldest) and emits OrderRemoved for it, or returns a nil order if
// that side is empty. The caller (the matching engine) owns deciding
// whether the popped order's residual quantity gets re-enqueued via Add.
func (b *LimitOrderBook) PopTop(side common.Side, ts int64, trigger *uint64, ids *common.IDGenerator) (*order.Order, []event.Event) {
	ladder := b.ladder(side)
	pl, ok := ladder.Min()
	if !ok {
		return nil, nil
	}
	o := pl.PopHead()
	delete(b.index, o.OrderID)
	b.dropLevelIfEmpty(side, pl)

	return o, []event.Event{{
		EventID:        ids.Next(),
		Timestamp:      ts,
		TriggerEventID: trigger,
		Payload:        event.OrderRemovedPayload{Ticker: b.Ticker, OrderID: o.OrderID},
	}}
}

// Cancel removes a resting order by id, emitting OrderCanceled followed by
// OrderRemoved. Returns common.ErrUnknownOrder if no such order currently
// rests in the book.
func (b *LimitOrderBook) Cancel(orderID uint64, ts int64, trigger *uint64, ids *common.IDGenerator) ([]event.Event, error) {
	entry, ok := b.index[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: order %d", common.ErrUnknownOrder, orderID)
	}
	o := entry.level.removeElement(entry.elem)
	delete(b.index, orderID)
	b.dropLevelIfEmpty(entry.side, entry.level)
	o.Cancel()

	return []event.Event{
		{
			EventID:        ids.Next(),
			Timestamp:      ts,
			TriggerEventID: trigger,
			Payload:        event.OrderCanceledPayload{Ticker: b.Ticker, OrderID: orderID, AgentID: o.AgentID},
		},
		{
			EventID:        ids.Next(),
			Timestamp:      ts,
			TriggerEventID: trigger,
			Payload:        event.OrderRemovedPayload{Ticker: b.Ticker, OrderID: orderID},
		},
	}, nil
}

// Contains reports whether orderID currently rests in the book.
func (b *LimitOrderBook) Contains(orderID uint64) bool {
	_, ok := b.index[orderID]
	return ok
}

// Depth returns the number of price levels currently populated on side.
func (b *LimitOrderBook) Depth(side common.Side) int {
	return b.ladder(side).Len()
}

// SweepExpired removes every resting order whose expiration has passed as
// of now, emitting OrderExpired for each. Order ids are visited in sorted
// order so sweep output is deterministic regardless of map iteration
// order.
func (b *LimitOrderBook) SweepExpired(now int64, trigger *uint64, ids *common.IDGenerator) []event.Event {
	due := make([]uint64, 0)
	for orderID, entry := range b.index {
		if o := entry.elem.Value.(*order.Order); o.IsExpired(now) {
			due = append(due, orderID)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i] < due[j] })

	var events []event.Event
	for _, orderID := range due {
		entry, ok := b.index[orderID]
		if !ok {
			continue
		}
		o := entry.level.removeElement(entry.elem)
		delete(b.index, orderID)
		b.dropLevelIfEmpty(entry.side, entry.level)
		o.Expire()

		events = append(events, event.Event{
			EventID:        ids.Next(),
			Timestamp:      now,
			TriggerEventID: trigger,
			Payload:        event.OrderExpiredPayload{Ticker: b.Ticker, OrderID: orderID, AgentID: o.AgentID},
		})
	}
	return events
}
