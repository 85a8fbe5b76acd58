package cart

import (
	"strings"

	"github.com/shopspring/decimal"
)

// NoVariant is the key component used when an item has no variant.
const NoVariant = "none"

// Candidate is a product offered to the cart, usually the result of a catalog lookup
// or a manual entry typed by the operator.
type Candidate struct {
	SKU      string
	Name     string
	Variant  *string
	Price    *decimal.Decimal
	ImageURL *string
}

// Key identifies the cart row a product aggregates into.
type Key struct {
	SKU     string
	Variant string
}

// KeyOf builds the aggregation key for sku and an optional variant.
func KeyOf(sku string, variant *string) Key {
	return Key{SKU: sku, Variant: normalizeVariant(variant)}
}

func normalizeVariant(variant *string) string {
	if variant == nil {
		return NoVariant
	}
	trimmed := strings.TrimSpace(*variant)
	if trimmed == "" {
		return NoVariant
	}
	return trimmed
}

// LineItem is one row of the cart. Name, Variant and UnitPrice are snapshots taken
// when the row was created and are never refreshed by later adds.
type LineItem struct {
	SKU       string
	Name      string
	Variant   *string
	Quantity  int
	UnitPrice decimal.Decimal
	ImageURL  *string
}

// Key returns the aggregation key of the row.
func (i LineItem) Key() Key {
	return KeyOf(i.SKU, i.Variant)
}

// LineTotal is Quantity × UnitPrice.
func (i LineItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i LineItem) clone() LineItem {
	out := i
	out.Variant = cloneString(i.Variant)
	out.ImageURL = cloneString(i.ImageURL)
	return out
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// variantSnapshot keeps the operator-visible variant, dropping blank values.
func variantSnapshot(v *string) *string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	c := strings.TrimSpace(*v)
	return &c
}
