// Package pricing is the single place where cart and order totals are
// computed, so the two sides can never disagree on rounding.
package pricing

import "github.com/shopspring/decimal"

type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

type Calculator struct {
	taxRate decimal.Decimal
}

func NewCalculator(taxRate decimal.Decimal) Calculator {
	return Calculator{taxRate: taxRate}
}

// Compute derives totals from the raw line sum. Subtotal and tax are each
// rounded to two decimals independently from the unrounded sum; the total is
// the sum of the two rounded values, never a re-derivation.
func (c Calculator) Compute(lines []Line) Totals {
	raw := decimal.Zero
	for _, l := range lines {
		raw = raw.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	subtotal := raw.Round(2)
	tax := raw.Mul(c.taxRate).Round(2)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// LineSubtotal is the stored per-line amount, rounded the same way as the
// order subtotal.
func LineSubtotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}
