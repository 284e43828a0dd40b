package agent

import (
	"github.com/shopspring/decimal"

	"fenrir/internal/common"
)

// fakeMarketView is a scripted MarketView for exercising agent decision
// logic without a real order book.
type fakeMarketView struct {
	bestBid, bestAsk   decimal.Decimal
	hasBid, hasAsk     bool
	mid                decimal.Decimal
	hasMid             bool
	lastTrade          decimal.Decimal
	hasLastTrade       bool
	bars               []Bar
}

func (f fakeMarketView) BestBid() (decimal.Decimal, bool)      { return f.bestBid, f.hasBid }
func (f fakeMarketView) BestAsk() (decimal.Decimal, bool)      { return f.bestAsk, f.hasAsk }
func (f fakeMarketView) MidPrice() (decimal.Decimal, bool)     { return f.mid, f.hasMid }
func (f fakeMarketView) LastTradePrice() (decimal.Decimal, bool) { return f.lastTrade, f.hasLastTrade }
func (f fakeMarketView) Bars(period int) []Bar                 { return f.bars }

// fakeSubmissionPort records every call an agent makes through it.
type fakeSubmissionPort struct {
	nextID     uint64
	limits     []submittedLimit
	markets    []submittedMarket
	cancels    []uint64
	failCancel bool
}

type submittedLimit struct {
	side  common.Side
	qty   uint64
	price decimal.Decimal
}

type submittedMarket struct {
	side common.Side
	qty  uint64
}

func (f *fakeSubmissionPort) PlaceLimit(side common.Side, qty uint64, price decimal.Decimal) (uint64, error) {
	f.nextID++
	f.limits = append(f.limits, submittedLimit{side: side, qty: qty, price: price})
	return f.nextID, nil
}

func (f *fakeSubmissionPort) PlaceMarket(side common.Side, qty uint64) (uint64, error) {
	f.nextID++
	f.markets = append(f.markets, submittedMarket{side: side, qty: qty})
	return f.nextID, nil
}

func (f *fakeSubmissionPort) Cancel(orderID uint64) error {
	f.cancels = append(f.cancels, orderID)
	return nil
}
