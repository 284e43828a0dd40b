// Package event implements the typed, append-only, causally-linked record
// of every state transition the core produces. Go has no closed sum
// type, so the taxonomy is expressed as a tagged Kind plus a payload
// interface; consumers and the codec dispatch with a switch on the tag or
// the payload's concrete type.
package event

import (
	"fmt"

	"fenrir/internal/common"
)

// Kind tags which payload an Event carries.
type Kind uint8

const (
	KindOrderAdded Kind = iota
	KindOrderRemoved
	KindOrderModified
	KindOrderExecuted
	KindOrderCanceled
	KindOrderRejected
	KindTransaction
	KindTickerAdded
	KindTickerRemoved
	KindAgentAdded
	KindAgentRemoved
	KindMarketOrderUnfilled
	KindOrderExpired

	// KindOrderSubmitted and KindCancelRequested are the root events the
	// Simulation mints before handing a submission to the matching
	// engine or a cancel to the book, so every event a Process/Cancel
	// call emits can carry a trigger_event_id that actually appears
	// earlier in the stream.
	KindOrderSubmitted
	KindCancelRequested
)

func (k Kind) String() string {
	switch k {
	case KindOrderAdded:
		return "OrderAdded"
	case KindOrderRemoved:
		return "OrderRemoved"
	case KindOrderModified:
		return "OrderModified"
	case KindOrderExecuted:
		return "OrderExecuted"
	case KindOrderCanceled:
		return "OrderCanceled"
	case KindOrderRejected:
		return "OrderRejected"
	case KindTransaction:
		return "Transaction"
	case KindTickerAdded:
		return "TickerAdded"
	case KindTickerRemoved:
		return "TickerRemoved"
	case KindAgentAdded:
		return "AgentAdded"
	case KindAgentRemoved:
		return "AgentRemoved"
	case KindMarketOrderUnfilled:
		return "MarketOrderUnfilled"
	case KindOrderExpired:
		return "OrderExpired"
	case KindOrderSubmitted:
		return "OrderSubmitted"
	case KindCancelRequested:
		return "CancelRequested"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// executable reports whether a kind represents a command that was
// executed (as opposed to an observation of a transition). Every kind in
// this taxonomy is a post-hoc observation; the core only ever emits the
// latter.
func (k Kind) executable() bool { return false }

// Payload is implemented by every per-kind payload struct.
type Payload interface {
	Kind() Kind
}

// Event is one record in the append-only stream.
type Event struct {
	EventID        uint64
	Timestamp      int64
	TriggerEventID *uint64 // nil for root events
	Payload        Payload
}

func (e Event) Kind() Kind        { return e.Payload.Kind() }
func (e Event) Executable() bool  { return e.Kind().executable() }
func (e Event) Triggered() bool   { return e.TriggerEventID != nil }

func (e Event) String() string {
	trigger := "root"
	if e.TriggerEventID != nil {
		trigger = fmt.Sprintf("%d", *e.TriggerEventID)
	}
	return fmt.Sprintf("Event#%d[%s @%d trigger=%s] %+v", e.EventID, e.Kind(), e.Timestamp, trigger, e.Payload)
}

// --- Payload variants ---

type OrderAddedPayload struct {
	Ticker  string
	OrderID uint64
}

func (OrderAddedPayload) Kind() Kind { return KindOrderAdded }

type OrderRemovedPayload struct {
	Ticker  string
	OrderID uint64
}

func (OrderRemovedPayload) Kind() Kind { return KindOrderRemoved }

type OrderModifiedPayload struct {
	Ticker  string
	OrderID uint64
	OldQty  uint64
	NewQty  uint64
}

func (OrderModifiedPayload) Kind() Kind { return KindOrderModified }

type OrderExecutedPayload struct {
	Ticker  string
	OrderID uint64
	AgentID uint64
}

func (OrderExecutedPayload) Kind() Kind { return KindOrderExecuted }

type OrderCanceledPayload struct {
	Ticker  string
	OrderID uint64
	AgentID uint64
}

func (OrderCanceledPayload) Kind() Kind { return KindOrderCanceled }

type OrderRejectedPayload struct {
	Ticker  string
	OrderID uint64
	AgentID uint64
	Reason  string
}

func (OrderRejectedPayload) Kind() Kind { return KindOrderRejected }

type TransactionPayload struct {
	Ticker      string
	Quantity    uint64
	Price       string // decimal.Decimal.String(), kept string so the codec stays allocation-simple
	BuyerID     uint64
	SellerID    uint64
	BuyOrderID  uint64
	SellOrderID uint64
}

func (TransactionPayload) Kind() Kind { return KindTransaction }

type TickerAddedPayload struct {
	Ticker string
}

func (TickerAddedPayload) Kind() Kind { return KindTickerAdded }

type TickerRemovedPayload struct {
	Ticker string
}

func (TickerRemovedPayload) Kind() Kind { return KindTickerRemoved }

type AgentAddedPayload struct {
	AgentID uint64
}

func (AgentAddedPayload) Kind() Kind { return KindAgentAdded }

type AgentRemovedPayload struct {
	AgentID uint64
}

func (AgentRemovedPayload) Kind() Kind { return KindAgentRemoved }

// MarketOrderUnfilledPayload records a market order's residual quantity
// dropped for lack of liquidity; it is never rested.
type MarketOrderUnfilledPayload struct {
	Ticker      string
	OrderID     uint64
	AgentID     uint64
	ResidualQty uint64
}

func (MarketOrderUnfilledPayload) Kind() Kind { return KindMarketOrderUnfilled }

// OrderExpiredPayload records a resting order removed by the expiry
// sweeper rather than by cancellation or a fill.
type OrderExpiredPayload struct {
	Ticker  string
	OrderID uint64
	AgentID uint64
}

func (OrderExpiredPayload) Kind() Kind { return KindOrderExpired }

// OrderSubmittedPayload is the root event the Simulation appends before
// handing a new order to the matching engine; its EventID becomes the
// trigger for every event that submission produces.
type OrderSubmittedPayload struct {
	Ticker  string
	OrderID uint64
	AgentID uint64
	Side    common.Side
	Kind    common.OrderKind
}

func (OrderSubmittedPayload) Kind() Kind { return KindOrderSubmitted }

// CancelRequestedPayload is the root event the Simulation appends before
// handing a cancel request to the book; its EventID becomes the trigger
// for the OrderCanceled/OrderRemoved pair that follows.
type CancelRequestedPayload struct {
	Ticker  string
	OrderID uint64
	AgentID uint64
}

func (CancelRequestedPayload) Kind() Kind { return KindCancelRequested }
