// Package engine implements the stateless matching algorithm that unifies
// the four order/side combinations (market/limit, buy/sell) into a single
// function branching on (Kind, Side) rather than four near-duplicate
// methods.
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"fenrir/internal/book"
	"fenrir/internal/common"
	"fenrir/internal/event"
	"fenrir/internal/order"
)

// MatchingEngine carries no state of its own; the book and event stream
// hold everything. A zero value is ready to use.
type MatchingEngine struct{}

// Process runs the price-time-priority algorithm for o against b,
// returning every event the call produced in strict causal order.
// o.Ticker must match b.Ticker; the caller
// (the Simulation) is responsible for the ticker-to-book lookup and
// returns common.ErrUnknownTicker itself when no such book exists.
func (MatchingEngine) Process(o *order.Order, b *book.LimitOrderBook, ts int64, trigger *uint64, ids *common.IDGenerator) ([]event.Event, error) {
	if o.Ticker != b.Ticker {
		return nil, fmt.Errorf("%w: order for %s submitted against book %s", common.ErrUnknownTicker, o.Ticker, b.Ticker)
	}
	if o.Kind == common.Limit && o.Price == nil {
		return nil, fmt.Errorf("%w: limit order without price", common.ErrInvalidOrder)
	}
	if o.Kind == common.Market && o.Price != nil {
		return nil, fmt.Errorf("%w: market order with price", common.ErrInvalidOrder)
	}
	if o.Quantity == 0 {
		return nil, fmt.Errorf("%w: non-positive quantity", common.ErrInvalidOrder)
	}

	opposite := o.Side.Opposite()
	var events []event.Event

	for {
		oppBest, ok := bestOn(b, opposite)
		if !ok {
			break
		}
		if o.IsLimit() && !o.Crosses(oppBest) {
			break
		}

		resting, rmEvents := b.PopTop(opposite, ts, trigger, ids)
		events = append(events, rmEvents...)

		tradePrice := *resting.Price
		tradeQty := minUint64(o.Quantity, resting.Quantity)

		buyerID, sellerID := o.AgentID, resting.AgentID
		buyOrderID, sellOrderID := o.OrderID, resting.OrderID
		if o.Side == common.Sell {
			buyerID, sellerID = resting.AgentID, o.AgentID
			buyOrderID, sellOrderID = resting.OrderID, o.OrderID
		}

		events = append(events, event.Event{
			EventID:        ids.Next(),
			Timestamp:      ts,
			TriggerEventID: trigger,
			Payload: event.TransactionPayload{
				Ticker:      b.Ticker,
				Quantity:    tradeQty,
				Price:       tradePrice.String(),
				BuyerID:     buyerID,
				SellerID:    sellerID,
				BuyOrderID:  buyOrderID,
				SellOrderID: sellOrderID,
			},
		})

		restingOld := resting.Quantity
		resting.Reduce(tradeQty)
		o.Reduce(tradeQty)

		if resting.Quantity > 0 {
			events = append(events, event.Event{
				EventID:        ids.Next(),
				Timestamp:      ts,
				TriggerEventID: trigger,
				Payload:        event.OrderModifiedPayload{Ticker: b.Ticker, OrderID: resting.OrderID, OldQty: restingOld, NewQty: resting.Quantity},
			})
			events = append(events, b.Add(resting, ts, trigger, ids)...)
		} else {
			events = append(events, event.Event{
				EventID:        ids.Next(),
				Timestamp:      ts,
				TriggerEventID: trigger,
				Payload:        event.OrderExecutedPayload{Ticker: b.Ticker, OrderID: resting.OrderID, AgentID: resting.AgentID},
			})
		}

		if o.Quantity > 0 {
			events = append(events, event.Event{
				EventID:        ids.Next(),
				Timestamp:      ts,
				TriggerEventID: trigger,
				Payload:        event.OrderModifiedPayload{Ticker: b.Ticker, OrderID: o.OrderID, OldQty: o.Quantity + tradeQty, NewQty: o.Quantity},
			})
			continue
		}

		events = append(events, event.Event{
			EventID:        ids.Next(),
			Timestamp:      ts,
			TriggerEventID: trigger,
			Payload:        event.OrderExecutedPayload{Ticker: b.Ticker, OrderID: o.OrderID, AgentID: o.AgentID},
		})
		return events, nil
	}

	if o.Quantity == 0 {
		return events, nil
	}

	if o.IsLimit() {
		events = append(events, b.Add(o, ts, trigger, ids)...)
		return events, nil
	}

	events = append(events, event.Event{
		EventID:        ids.Next(),
		Timestamp:      ts,
		TriggerEventID: trigger,
		Payload:        event.MarketOrderUnfilledPayload{Ticker: b.Ticker, OrderID: o.OrderID, AgentID: o.AgentID, ResidualQty: o.Quantity},
	})
	return events, nil
}

func bestOn(b *book.LimitOrderBook, side common.Side) (decimal.Decimal, bool) {
	if side == common.Buy {
		return b.BestBid()
	}
	return b.BestAsk()
}

func minUint64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
