package agent

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fenrir/internal/common"
)

func bar(close float64) Bar {
	c := decimal.NewFromFloat(close)
	return Bar{Open: c, High: c, Low: c, Close: c, Volume: 1}
}

func TestChartistSellsWhenTrendAboveMid(t *testing.T) {
	a := NewChartistAgent(1, "ACME", 5, 3, 1, 1.0, 1)
	sp := &fakeSubmissionPort{}
	mv := fakeMarketView{
		mid:    decimal.NewFromInt(100),
		hasMid: true,
		bars:   []Bar{bar(100), bar(110), bar(120)},
	}

	a.Activate(0, mv, sp)

	require.Len(t, sp.limits, 1)
	assert.Equal(t, common.Sell, sp.limits[0].side)
}

func TestChartistBuysWhenTrendBelowMid(t *testing.T) {
	a := NewChartistAgent(1, "ACME", 5, 3, 1, 1.0, 1)
	sp := &fakeSubmissionPort{}
	mv := fakeMarketView{
		mid:    decimal.NewFromInt(100),
		hasMid: true,
		bars:   []Bar{bar(100), bar(90), bar(80)},
	}

	a.Activate(0, mv, sp)

	require.Len(t, sp.limits, 1)
	assert.Equal(t, common.Buy, sp.limits[0].side)
}

func TestChartistNoOpsWithoutBars(t *testing.T) {
	a := NewChartistAgent(1, "ACME", 5, 3, 1, 1.0, 1)
	sp := &fakeSubmissionPort{}

	next := a.Activate(0, fakeMarketView{}, sp)

	assert.Empty(t, sp.limits)
	assert.GreaterOrEqual(t, next, int64(0))
}

func TestExponentialMovingAverageSeedsAtFirstClose(t *testing.T) {
	bars := []Bar{bar(100)}
	ema := exponentialMovingAverage(bars, 5)
	assert.True(t, ema.Equal(decimal.NewFromFloat(100)))
}
