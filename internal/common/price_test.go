package common

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickSizeQuantize(t *testing.T) {
	tick := NewTickSize(2)
	got := tick.Quantize(decimal.NewFromFloat(100.12345))
	assert.True(t, got.Equal(decimal.NewFromFloat(100.12)), "got %s", got)
}

func TestTickSizeQuantizeRoundsHalfAwayFromZero(t *testing.T) {
	tick := NewTickSize(0)
	got := tick.Quantize(decimal.NewFromFloat(100.5))
	assert.True(t, got.Equal(decimal.NewFromInt(101)), "got %s", got)
}

func TestValidatePositivePrice(t *testing.T) {
	require.NoError(t, ValidatePositivePrice(decimal.NewFromInt(1)))

	err := ValidatePositivePrice(decimal.Zero)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidOrder)

	err = ValidatePositivePrice(decimal.NewFromInt(-5))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestIDGeneratorIsMonotonicAndStartsAtOne(t *testing.T) {
	g := NewIDGenerator()
	assert.EqualValues(t, 1, g.Peek())
	assert.EqualValues(t, 1, g.Next())
	assert.EqualValues(t, 2, g.Next())
	assert.EqualValues(t, 3, g.Next())
}

func TestSideOpposite(t *testing.T) {
	assert.Equal(t, Sell, Buy.Opposite())
	assert.Equal(t, Buy, Sell.Opposite())
}

func TestOrderStatusIsTerminal(t *testing.T) {
	assert.False(t, Open.IsTerminal())
	assert.True(t, Filled.IsTerminal())
	assert.True(t, Canceled.IsTerminal())
	assert.True(t, Expired.IsTerminal())
}
