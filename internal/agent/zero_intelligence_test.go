package agent

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fenrir/internal/common"
)

func TestZeroIntelligencePlacesLimitOrderWhenRateIsCertain(t *testing.T) {
	a := NewZeroIntelligenceAgent(1, "ACME", common.DefaultTickSize, 10, 1.0, 0, 0, 1.0, 1)
	sp := &fakeSubmissionPort{}

	a.Activate(0, fakeMarketView{}, sp)

	require.Len(t, sp.limits, 1)
	assert.Empty(t, sp.markets)
	order := sp.limits[0]
	assert.GreaterOrEqual(t, order.qty, uint64(1))
	assert.LessOrEqual(t, order.qty, uint64(10))
	assert.True(t, order.price.GreaterThan(decimal.Zero))
}

func TestZeroIntelligencePlacesMarketOrderWhenRateIsCertain(t *testing.T) {
	a := NewZeroIntelligenceAgent(1, "ACME", common.DefaultTickSize, 10, 0, 1.0, 0, 1.0, 1)
	sp := &fakeSubmissionPort{}

	a.Activate(0, fakeMarketView{}, sp)

	assert.Empty(t, sp.limits)
	require.Len(t, sp.markets, 1)
}

func TestZeroIntelligenceNeverActsWhenAllRatesAreZero(t *testing.T) {
	a := NewZeroIntelligenceAgent(1, "ACME", common.DefaultTickSize, 10, 0, 0, 0, 1.0, 1)
	sp := &fakeSubmissionPort{}

	a.Activate(0, fakeMarketView{}, sp)

	assert.Empty(t, sp.limits)
	assert.Empty(t, sp.markets)
	assert.Empty(t, sp.cancels)
}

func TestZeroIntelligenceCancelsOnlyItsOwnPendingOrders(t *testing.T) {
	a := NewZeroIntelligenceAgent(1, "ACME", common.DefaultTickSize, 10, 0, 0, 1.0, 1.0, 1)
	a.pending[42] = true
	a.pending[43] = true
	sp := &fakeSubmissionPort{}

	a.Activate(0, fakeMarketView{}, sp)

	require.Len(t, sp.cancels, 1)
	assert.Contains(t, []uint64{42, 43}, sp.cancels[0])
	assert.Len(t, a.pending, 1)
}

func TestZeroIntelligenceCancelIsNoOpWithNoPendingOrders(t *testing.T) {
	a := NewZeroIntelligenceAgent(1, "ACME", common.DefaultTickSize, 10, 0, 0, 1.0, 1.0, 1)
	sp := &fakeSubmissionPort{}

	a.Activate(0, fakeMarketView{}, sp)

	assert.Empty(t, sp.cancels)
}

func TestZeroIntelligencePricesNearBestAskWhenBuying(t *testing.T) {
	// The side is drawn at random, so run enough activations that some
	// draws buy, and check the invariant holds whenever a buy limit was
	// placed.
	a := NewZeroIntelligenceAgent(1, "ACME", common.DefaultTickSize, 10, 1.0, 0, 0, 1.0, 7)
	sp := &fakeSubmissionPort{}
	mv := fakeMarketView{bestAsk: decimal.NewFromInt(105), hasAsk: true}

	now := int64(0)
	for i := 0; i < 20; i++ {
		now = a.Activate(now, mv, sp)
	}

	for _, order := range sp.limits {
		if order.side == common.Buy {
			assert.True(t, order.price.LessThanOrEqual(decimal.NewFromInt(105)))
		}
	}
}
