package book

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fenrir/internal/common"
	"fenrir/internal/order"
)

func mustLimit(t *testing.T, id uint64, side common.Side, qty uint64, price decimal.Decimal) *order.Order {
	t.Helper()
	o, err := order.NewLimit(id, id, "ACME", side, qty, price, 0, nil, common.DefaultTickSize)
	require.NoError(t, err)
	return o
}

func TestPriceLevelEnqueueMaintainsAggregates(t *testing.T) {
	pl := NewPriceLevel(newPriceKey(decimal.NewFromInt(100), common.Sell))
	pl.Enqueue(mustLimit(t, 1, common.Sell, 30, decimal.NewFromInt(100)))
	pl.Enqueue(mustLimit(t, 2, common.Sell, 40, decimal.NewFromInt(100)))

	assert.EqualValues(t, 70, pl.TotalVolume())
	assert.Equal(t, 2, pl.Count())
	assert.EqualValues(t, 1, pl.PeekHead().OrderID)
}

func TestPriceLevelFIFOOrdering(t *testing.T) {
	pl := NewPriceLevel(newPriceKey(decimal.NewFromInt(100), common.Sell))
	pl.Enqueue(mustLimit(t, 1, common.Sell, 30, decimal.NewFromInt(100)))
	pl.Enqueue(mustLimit(t, 2, common.Sell, 40, decimal.NewFromInt(100)))

	first := pl.PopHead()
	assert.EqualValues(t, 1, first.OrderID)
	second := pl.PopHead()
	assert.EqualValues(t, 2, second.OrderID)
	assert.True(t, pl.IsEmpty())
}

func TestPriceLevelPopToMeetDemandExactMatch(t *testing.T) {
	pl := NewPriceLevel(newPriceKey(decimal.NewFromInt(100), common.Sell))
	pl.Enqueue(mustLimit(t, 1, common.Sell, 30, decimal.NewFromInt(100)))
	pl.Enqueue(mustLimit(t, 2, common.Sell, 40, decimal.NewFromInt(100)))

	fills := pl.PopToMeetDemand(30)
	require.Len(t, fills, 1)
	assert.EqualValues(t, 1, fills[0].Order.OrderID)
	assert.EqualValues(t, 30, fills[0].Qty)
	assert.EqualValues(t, 40, pl.TotalVolume())
}

func TestPriceLevelPopToMeetDemandPartialConsumesHead(t *testing.T) {
	pl := NewPriceLevel(newPriceKey(decimal.NewFromInt(100), common.Sell))
	a := mustLimit(t, 1, common.Sell, 30, decimal.NewFromInt(100))
	pl.Enqueue(a)
	pl.Enqueue(mustLimit(t, 2, common.Sell, 40, decimal.NewFromInt(100)))

	fills := pl.PopToMeetDemand(10)
	require.Len(t, fills, 1)
	assert.EqualValues(t, 1, fills[0].Order.OrderID)
	assert.EqualValues(t, 10, fills[0].Qty)
	// a itself was popped off the queue; the caller owns re-adding the
	// remainder.
	assert.EqualValues(t, 40, pl.TotalVolume())
	assert.EqualValues(t, 2, pl.PeekHead().OrderID)
}

func TestPriceLevelPartialRefillReentersAtHead(t *testing.T) {
	pl := NewPriceLevel(newPriceKey(decimal.NewFromInt(100), common.Sell))
	a := mustLimit(t, 1, common.Sell, 30, decimal.NewFromInt(100))
	pl.Enqueue(a)
	pl.Enqueue(mustLimit(t, 2, common.Sell, 40, decimal.NewFromInt(100)))

	fills := pl.PopToMeetDemand(10)
	a.Reduce(10) // matching engine semantics: caller decrements before re-adding

	// Re-add the partially-filled order: it must land at the head, ahead
	// of order 2, because it was the last order popped via PopToMeetDemand.
	pl.Enqueue(fills[0].Order)

	head := pl.PeekHead()
	assert.EqualValues(t, 1, head.OrderID)
	assert.EqualValues(t, 20, head.Quantity)
}

func TestPriceLevelPartialMarkerIsOneShot(t *testing.T) {
	pl := NewPriceLevel(newPriceKey(decimal.NewFromInt(100), common.Sell))
	a := mustLimit(t, 1, common.Sell, 30, decimal.NewFromInt(100))
	pl.Enqueue(a)
	pl.Enqueue(mustLimit(t, 2, common.Sell, 40, decimal.NewFromInt(100)))

	pl.PopToMeetDemand(10)
	// A fresh order arrives before order 1 is re-added: the marker must
	// not let some later id jump the queue.
	pl.Enqueue(mustLimit(t, 3, common.Sell, 5, decimal.NewFromInt(100)))
	// Now order 1 is re-added: the marker was already cleared, so it
	// goes to the tail like any other enqueue.
	a.Reduce(10)
	pl.Enqueue(a)

	orders := pl.Orders()
	ids := make([]uint64, len(orders))
	for i, o := range orders {
		ids[i] = o.OrderID
	}
	assert.Equal(t, []uint64{2, 3, 1}, ids)
}

func TestPriceLevelRemoveByID(t *testing.T) {
	pl := NewPriceLevel(newPriceKey(decimal.NewFromInt(100), common.Sell))
	pl.Enqueue(mustLimit(t, 1, common.Sell, 30, decimal.NewFromInt(100)))
	pl.Enqueue(mustLimit(t, 2, common.Sell, 40, decimal.NewFromInt(100)))
	pl.Enqueue(mustLimit(t, 3, common.Sell, 10, decimal.NewFromInt(100)))

	removed := pl.Remove(2)
	require.NotNil(t, removed)
	assert.EqualValues(t, 2, removed.OrderID)
	assert.EqualValues(t, 40, pl.TotalVolume())

	orders := pl.Orders()
	require.Len(t, orders, 2)
	assert.EqualValues(t, 1, orders[0].OrderID)
	assert.EqualValues(t, 3, orders[1].OrderID)
}

func TestPriceLevelEnqueueMismatchedPricePanics(t *testing.T) {
	pl := NewPriceLevel(newPriceKey(decimal.NewFromInt(100), common.Sell))
	o := mustLimit(t, 1, common.Sell, 30, decimal.NewFromInt(101))
	assert.Panics(t, func() { pl.Enqueue(o) })
}
