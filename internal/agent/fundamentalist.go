package agent

import (
	"github.com/shopspring/decimal"

	"fenrir/internal/common"
)

var half = decimal.NewFromFloat(0.5)

// FundamentalistAgent trades toward a fixed fundamental value: buys when
// the observed mid-price sits meaningfully below it, sells when it sits
// meaningfully above.
type FundamentalistAgent struct {
	TimeActivated

	ticker           string
	fundamentalValue decimal.Decimal
	maxOrderSize     uint64
}

// NewFundamentalistAgent constructs a fundamentalist agent.
func NewFundamentalistAgent(agentID uint64, ticker string, fundamentalValue decimal.Decimal, maxOrderSize uint64, activationRate float64, simSeed uint64) *FundamentalistAgent {
	return &FundamentalistAgent{
		TimeActivated:    NewTimeActivated(agentID, activationRate, simSeed),
		ticker:           ticker,
		fundamentalValue: fundamentalValue,
		maxOrderSize:     maxOrderSize,
	}
}

func (a *FundamentalistAgent) Activate(now int64, mv MarketView, sp SubmissionPort) int64 {
	mid, ok := mv.MidPrice()
	if !ok {
		if last, hasLast := mv.LastTradePrice(); hasLast {
			mid = last
		} else {
			mid = decimal.NewFromInt(100)
		}
	}

	size := uint64(a.IntN(int(a.maxOrderSize))) + 1

	switch {
	case mid.LessThan(a.fundamentalValue.Sub(half)):
		sp.PlaceLimit(common.Buy, size, mid)
	case mid.GreaterThan(a.fundamentalValue.Add(half)):
		sp.PlaceLimit(common.Sell, size, mid)
	}

	return a.NextActivation(now)
}
