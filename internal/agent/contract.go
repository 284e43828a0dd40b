// Package agent defines the agent contract and ships the reference
// archetypes an implementation is free to run alongside the core:
// zero-intelligence, fundamentalist, chartist. The core itself never
// special-cases any one archetype; it only ever calls Activate through
// this interface.
package agent

import (
	"github.com/shopspring/decimal"

	"fenrir/internal/common"
)

// Bar is one OHLCV aggregation over a fixed tick width.
type Bar struct {
	Open, High, Low, Close decimal.Decimal
	Volume                 uint64
}

// MarketView is the read-only state an agent may observe. Implementations
// must never hand back a reference an agent could retain across
// activations; every method returns a value snapshot.
type MarketView interface {
	BestBid() (decimal.Decimal, bool)
	BestAsk() (decimal.Decimal, bool)
	MidPrice() (decimal.Decimal, bool)
	LastTradePrice() (decimal.Decimal, bool)
	Bars(period int) []Bar
}

// SubmissionPort is the agent-facing order entry API. Every call completes
// synchronously through the matching engine before returning.
type SubmissionPort interface {
	PlaceLimit(side common.Side, qty uint64, price decimal.Decimal) (orderID uint64, err error)
	PlaceMarket(side common.Side, qty uint64) (orderID uint64, err error)
	Cancel(orderID uint64) error
}

// Agent is the contract every archetype implements.
type Agent interface {
	ID() uint64
	// Activate runs the agent's decision logic for the current tick and
	// returns the simulation time of its next activation.
	Activate(now int64, mv MarketView, sp SubmissionPort) (nextActivation int64)
}
