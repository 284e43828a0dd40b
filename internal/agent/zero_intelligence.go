package agent

import (
	"sort"

	"github.com/shopspring/decimal"

	"fenrir/internal/common"
)

// ZeroIntelligenceAgent submits uninformed limit/market orders and
// occasionally cancels one of its own resting orders, independent draws
// each activation. Both sides use the same symmetric +-5 band around the
// last trade price when there's no best bid/ask to anchor against.
type ZeroIntelligenceAgent struct {
	TimeActivated

	ticker           string
	tick             common.TickSize
	maxOrderSize     uint64
	limitOrderRate   float64
	marketOrderRate  float64
	cancellationRate float64

	pending map[uint64]bool
}

// NewZeroIntelligenceAgent constructs a zero-intelligence agent.
func NewZeroIntelligenceAgent(agentID uint64, ticker string, tick common.TickSize, maxOrderSize uint64, limitRate, marketRate, cancelRate, activationRate float64, simSeed uint64) *ZeroIntelligenceAgent {
	return &ZeroIntelligenceAgent{
		TimeActivated:    NewTimeActivated(agentID, activationRate, simSeed),
		ticker:           ticker,
		tick:             tick,
		maxOrderSize:     maxOrderSize,
		limitOrderRate:   limitRate,
		marketOrderRate:  marketRate,
		cancellationRate: cancelRate,
		pending:          make(map[uint64]bool),
	}
}

func (a *ZeroIntelligenceAgent) Activate(now int64, mv MarketView, sp SubmissionPort) int64 {
	if a.Float64() < a.limitOrderRate {
		a.placeLimitOrder(mv, sp)
	}
	if a.Float64() < a.marketOrderRate {
		a.placeMarketOrder(sp)
	}
	if a.Float64() < a.cancellationRate {
		a.cancelRandomPending(sp)
	}
	return a.NextActivation(now)
}

func (a *ZeroIntelligenceAgent) orderSize() uint64 {
	return uint64(a.IntN(int(a.maxOrderSize))) + 1
}

func (a *ZeroIntelligenceAgent) uniform(lo, hi float64) decimal.Decimal {
	if hi < lo {
		lo, hi = hi, lo
	}
	v := lo + a.Float64()*(hi-lo)
	return a.tick.Quantize(decimal.NewFromFloat(v))
}

func (a *ZeroIntelligenceAgent) placeLimitOrder(mv MarketView, sp SubmissionPort) {
	size := a.orderSize()
	side := common.Buy
	if a.IntN(2) == 1 {
		side = common.Sell
	}

	bestBid, hasBid := mv.BestBid()
	bestAsk, hasAsk := mv.BestAsk()
	last, hasLast := mv.LastTradePrice()

	var price decimal.Decimal
	switch {
	case side == common.Buy && hasAsk:
		lo := decimal.Max(decimal.Zero, bestAsk.Sub(decimal.NewFromInt(10)))
		price = a.uniform(lo.InexactFloat64(), bestAsk.InexactFloat64())
	case side == common.Buy && hasLast:
		lo := decimal.Max(decimal.Zero, last.Sub(decimal.NewFromInt(5)))
		hi := last.Add(decimal.NewFromInt(5))
		price = a.uniform(lo.InexactFloat64(), hi.InexactFloat64())
	case side == common.Buy:
		price = a.uniform(50, 150)
	case side == common.Sell && hasBid:
		price = a.uniform(bestBid.InexactFloat64(), bestBid.Add(decimal.NewFromInt(10)).InexactFloat64())
	case side == common.Sell && hasLast:
		lo := decimal.Max(decimal.Zero, last.Sub(decimal.NewFromInt(5)))
		hi := last.Add(decimal.NewFromInt(5))
		price = a.uniform(lo.InexactFloat64(), hi.InexactFloat64())
	default:
		price = a.uniform(50, 150)
	}

	if price.Sign() <= 0 {
		return
	}
	id, err := sp.PlaceLimit(side, size, price)
	if err != nil {
		return
	}
	a.pending[id] = true
}

func (a *ZeroIntelligenceAgent) placeMarketOrder(sp SubmissionPort) {
	size := a.orderSize()
	side := common.Buy
	if a.IntN(2) == 1 {
		side = common.Sell
	}
	sp.PlaceMarket(side, size)
}

func (a *ZeroIntelligenceAgent) cancelRandomPending(sp SubmissionPort) {
	if len(a.pending) == 0 {
		return
	}
	ids := make([]uint64, 0, len(a.pending))
	for id := range a.pending {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	pick := ids[a.IntN(len(ids))]
	sp.Cancel(pick)
	delete(a.pending, pick)
}
