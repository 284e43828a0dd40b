package common

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TickSize is the minimal price increment a book is quantized to.
// Per-book overrides are supported for instruments quoted more coarsely
// or finely than the two-decimal-digit default.
type TickSize struct {
	decimals int32
}

// DefaultTickSize is the two-decimal-digit tick used unless a book is
// constructed with an explicit override.
var DefaultTickSize = TickSize{decimals: 2}

// NewTickSize builds a tick size of the given number of decimal digits.
func NewTickSize(decimals int32) TickSize {
	return TickSize{decimals: decimals}
}

// Quantize rounds a price to this tick size. order.NewLimit quantizes every
// limit price at construction, so no two representations of the "same"
// price ever reach the book; the book and the matching engine do not
// quantize again.
func (t TickSize) Quantize(p decimal.Decimal) decimal.Decimal {
	return p.Round(t.decimals)
}

// ValidatePositivePrice returns an error unless p is strictly positive,
// the invariant every limit order's price must satisfy.
func ValidatePositivePrice(p decimal.Decimal) error {
	if p.Sign() <= 0 {
		return fmt.Errorf("%w: price %s is not strictly positive", ErrInvalidOrder, p.String())
	}
	return nil
}
