package agent

import (
	"github.com/shopspring/decimal"

	"fenrir/internal/common"
)

// ChartistAgent follows a trend signal: an exponential moving average of
// closing bar prices compared against the current mid-price.
type ChartistAgent struct {
	TimeActivated

	ticker       string
	maxOrderSize uint64
	window       int
	barPeriod    int
}

// NewChartistAgent constructs a chartist agent.
func NewChartistAgent(agentID uint64, ticker string, maxOrderSize uint64, window, barPeriod int, activationRate float64, simSeed uint64) *ChartistAgent {
	return &ChartistAgent{
		TimeActivated: NewTimeActivated(agentID, activationRate, simSeed),
		ticker:        ticker,
		maxOrderSize:  maxOrderSize,
		window:        window,
		barPeriod:     barPeriod,
	}
}

func (a *ChartistAgent) Activate(now int64, mv MarketView, sp SubmissionPort) int64 {
	bars := mv.Bars(a.barPeriod)
	if len(bars) == 0 {
		return a.NextActivation(now)
	}

	ema := exponentialMovingAverage(bars, a.window)

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
	case ema.GreaterThan(mid.Add(half)):
		sp.PlaceLimit(common.Sell, size, mid)
	case ema.LessThan(mid.Sub(half)):
		sp.PlaceLimit(common.Buy, size, mid)
	}

	return a.NextActivation(now)
}

// exponentialMovingAverage mirrors pandas' ewm(span=window,
// adjust=False).mean(): alpha = 2/(window+1), seeded at the first close.
func exponentialMovingAverage(bars []Bar, window int) decimal.Decimal {
	alpha := decimal.NewFromFloat(2.0 / (float64(window) + 1.0))
	oneMinusAlpha := decimal.NewFromInt(1).Sub(alpha)

	ema := bars[0].Close
	for _, b := range bars[1:] {
		ema = alpha.Mul(b.Close).Add(oneMinusAlpha.Mul(ema))
	}
	return ema
}
