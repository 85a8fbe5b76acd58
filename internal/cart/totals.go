package cart

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Adjustment holds the sale-level inputs that change totals without touching rows.
// It belongs to the checkout form, not to the cart, and is passed in on every call.
type Adjustment struct {
	Freight         decimal.Decimal
	DiscountValue   decimal.Decimal
	DiscountPercent decimal.Decimal
	AmountReceived  decimal.Decimal
}

// Normalized returns a copy with negative fields raised to zero.
func (a Adjustment) Normalized() Adjustment {
	return Adjustment{
		Freight:         nonNegative(a.Freight),
		DiscountValue:   nonNegative(a.DiscountValue),
		DiscountPercent: nonNegative(a.DiscountPercent),
		AmountReceived:  nonNegative(a.AmountReceived),
	}
}

// Totals is always derived from rows and an Adjustment, never stored.
type Totals struct {
	Subtotal      decimal.Decimal
	DiscountTotal decimal.Decimal
	Total         decimal.Decimal
	Change        decimal.Decimal
}

// Recompute derives totals from items:
//
//	subtotal      = Σ quantity × unitPrice
//	discountTotal = discountValue + subtotal × discountPercent / 100
//	total         = max(0, subtotal + freight − discountTotal)
//	change        = max(0, amountReceived − total)
//
// No rounding happens here.
func Recompute(items []LineItem, adj Adjustment) Totals {
	adj = adj.Normalized()

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	discount := adj.DiscountValue.Add(subtotal.Mul(adj.DiscountPercent).Div(hundred))
	total := nonNegative(subtotal.Add(adj.Freight).Sub(discount))
	change := nonNegative(adj.AmountReceived.Sub(total))

	return Totals{
		Subtotal:      subtotal,
		DiscountTotal: discount,
		Total:         total,
		Change:        change,
	}
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
