// Package order defines the Order value the rest of the core operates
// on: an immutable descriptor of a submission, a Kind-tagged sum type
// over limit and market orders rather than a type hierarchy.
package order

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fenrir/internal/common"
)

// Order is an immutable-after-construction descriptor for a submission.
// Quantity and Status are the only fields that change over the order's
// life, both via the transition methods below; everything else is fixed
// at construction, most importantly OrderID.
type Order struct {
	OrderID        uint64
	AgentID        uint64
	Ticker         string
	Side           common.Side
	Kind           common.OrderKind
	Quantity       uint64
	Status         common.OrderStatus
	Timestamp      int64
	Price          *decimal.Decimal // non-nil only for Kind == Limit
	ExpirationTime *int64           // optional, Kind == Limit only
}

// NewLimit constructs a resting-eligible limit order. id must come from
// the Simulation's shared order IDGenerator, never a package counter.
func NewLimit(id, agentID uint64, ticker string, side common.Side, qty uint64, price decimal.Decimal, ts int64, expiration *int64, tick common.TickSize) (*Order, error) {
	if qty == 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", common.ErrInvalidOrder)
	}
	quantized := tick.Quantize(price)
	if err := common.ValidatePositivePrice(quantized); err != nil {
		return nil, err
	}
	return &Order{
		OrderID:        id,
		AgentID:        agentID,
		Ticker:         ticker,
		Side:           side,
		Kind:           common.Limit,
		Quantity:       qty,
		Status:         common.Open,
		Timestamp:      ts,
		Price:          &quantized,
		ExpirationTime: expiration,
	}, nil
}

// NewMarket constructs a market order. Market orders never carry a price
// and never rest; see the MatchingEngine's residual-drop policy.
func NewMarket(id, agentID uint64, ticker string, side common.Side, qty uint64, ts int64) (*Order, error) {
	if qty == 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", common.ErrInvalidOrder)
	}
	return &Order{
		OrderID:   id,
		AgentID:   agentID,
		Ticker:    ticker,
		Side:      side,
		Kind:      common.Market,
		Quantity:  qty,
		Status:    common.Open,
		Timestamp: ts,
	}, nil
}

// IsLimit reports whether this is a resting-eligible limit order.
func (o *Order) IsLimit() bool { return o.Kind == common.Limit }

// Crosses reports whether this limit order's price crosses (is marketable
// against) the given opposite-side best price. Market orders always cross
// while the opposite side is non-empty, so this is only meaningful for
// limit orders; callers guard on o.IsLimit() first.
func (o *Order) Crosses(oppositeBest decimal.Decimal) bool {
	if o.Price == nil {
		return true
	}
	if o.Side == common.Buy {
		return oppositeBest.LessThanOrEqual(*o.Price)
	}
	return oppositeBest.GreaterThanOrEqual(*o.Price)
}

// Reduce decrements the order's remaining quantity by qty, marking it
// Filled once it reaches zero. qty must not exceed the current quantity;
// the matching engine never calls this with a larger value.
func (o *Order) Reduce(qty uint64) {
	if qty > o.Quantity {
		panic(fmt.Sprintf("order %d: reduce by %d exceeds remaining quantity %d", o.OrderID, qty, o.Quantity))
	}
	o.Quantity -= qty
	if o.Quantity == 0 {
		o.Status = common.Filled
	}
}

// Cancel marks a still-open order canceled. Callers are expected to have
// already removed it from any PriceLevel it rested in.
func (o *Order) Cancel() {
	o.Status = common.Canceled
}

// Expire marks a still-open order expired, the sweeper-triggered
// counterpart to Cancel.
func (o *Order) Expire() {
	o.Status = common.Expired
}

// IsExpired reports whether the order's expiration time has passed as of
// now. Orders with no ExpirationTime never expire.
func (o *Order) IsExpired(now int64) bool {
	return o.ExpirationTime != nil && *o.ExpirationTime <= now
}

func (o *Order) String() string {
	price := "-"
	if o.Price != nil {
		price = o.Price.String()
	}
	return fmt.Sprintf(
		"Order{id=%d agent=%d ticker=%s side=%s kind=%s qty=%d price=%s status=%s ts=%s}",
		o.OrderID, o.AgentID, o.Ticker, o.Side, o.Kind, o.Quantity, price, o.Status,
		time.Unix(0, o.Timestamp).UTC().Format(time.RFC3339Nano),
	)
}
