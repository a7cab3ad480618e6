package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeTotals(t *testing.T) {
	calc := NewCalculator(dec("0.19"))

	totals := calc.Compute([]Line{
		{UnitPrice: dec("5000"), Quantity: 2},
		{UnitPrice: dec("8000"), Quantity: 1},
	})

	assert.True(t, totals.Subtotal.Equal(dec("18000")), "subtotal = %s", totals.Subtotal)
	assert.True(t, totals.Tax.Equal(dec("3420")), "tax = %s", totals.Tax)
	assert.True(t, totals.Total.Equal(dec("21420")), "total = %s", totals.Total)
}

func TestComputeRoundsSubtotalAndTaxIndependently(t *testing.T) {
	calc := NewCalculator(dec("0.19"))

	// Raw sum 10.005: the subtotal rounds to 10.01 while the tax is derived
	// from the unrounded sum, 10.005 * 0.19 = 1.90095 -> 1.90.
	totals := calc.Compute([]Line{
		{UnitPrice: dec("3.335"), Quantity: 3},
	})

	require.True(t, totals.Subtotal.Equal(dec("10.01")), "subtotal = %s", totals.Subtotal)
	require.True(t, totals.Tax.Equal(dec("1.90")), "tax = %s", totals.Tax)
	// Total is the sum of the rounded parts, never a rounded re-derivation.
	require.True(t, totals.Total.Equal(dec("11.91")), "total = %s", totals.Total)
}

func TestComputeEmpty(t *testing.T) {
	calc := NewCalculator(dec("0.19"))
	totals := calc.Compute(nil)

	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.Tax.IsZero())
	assert.True(t, totals.Total.IsZero())
}

func TestLineSubtotal(t *testing.T) {
	assert.True(t, LineSubtotal(dec("19.99"), 3).Equal(dec("59.97")))
	assert.True(t, LineSubtotal(dec("3.335"), 3).Equal(dec("10.01")))
}
