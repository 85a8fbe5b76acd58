package cart

import "github.com/shopspring/decimal"

// State gates submission of the cart.
type State string

const (
	StateEmpty    State = "empty"
	StateNonEmpty State = "non_empty"
)

// Cart is the ordered list of line items for one in-progress sale.
// Insertion order is display order. At most one row exists per Key.
//
// Cart is not safe for concurrent use; the owner serializes access.
type Cart struct {
	items []LineItem
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// AddOrIncrement merges the candidate into the row with the same key, or appends a new
// row. quantity is coerced to at least 1. On merge only the quantity changes: price,
// name and image stay as they were on the first add. On append the unit price is
// priceOverride, else the candidate price, else zero. Returns the index of the row.
func (c *Cart) AddOrIncrement(candidate Candidate, quantity int, priceOverride *decimal.Decimal) int {
	qty := CoerceQuantity(quantity)
	key := KeyOf(candidate.SKU, candidate.Variant)

	if idx := c.indexOf(key); idx >= 0 {
		c.items[idx].Quantity = addQuantity(c.items[idx].Quantity, qty)
		return idx
	}

	c.items = append(c.items, LineItem{
		SKU:       candidate.SKU,
		Name:      candidate.Name,
		Variant:   variantSnapshot(candidate.Variant),
		Quantity:  qty,
		UnitPrice: initialPrice(candidate.Price, priceOverride),
		ImageURL:  cloneString(candidate.ImageURL),
	})
	return len(c.items) - 1
}

// SetQuantity replaces the quantity at index with raw parsed like a typed form value.
// Unparseable or non-positive input becomes 1; the row is never removed this way.
// Returns false when index is out of range, in which case nothing changes.
func (c *Cart) SetQuantity(index int, raw string) bool {
	return c.SetQuantityInt(index, ParseQuantity(raw))
}

// SetQuantityInt is SetQuantity for already numeric input.
func (c *Cart) SetQuantityInt(index int, quantity int) bool {
	if !c.inRange(index) {
		return false
	}
	c.items[index].Quantity = CoerceQuantity(quantity)
	return true
}

// RemoveAt deletes exactly one row. Out of range is a no-op returning false.
func (c *Cart) RemoveAt(index int) bool {
	if !c.inRange(index) {
		return false
	}
	c.items = append(c.items[:index], c.items[index+1:]...)
	return true
}

// Clear empties the cart. Clearing an empty cart is fine.
func (c *Cart) Clear() {
	c.items = nil
}

// Items returns a copy of the rows in display order.
func (c *Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	for i, item := range c.items {
		out[i] = item.clone()
	}
	return out
}

// Len returns the number of rows.
func (c *Cart) Len() int {
	return len(c.items)
}

// State reports whether the cart holds anything.
func (c *Cart) State() State {
	if len(c.items) == 0 {
		return StateEmpty
	}
	return StateNonEmpty
}

// Recompute derives the totals of the current rows under adj.
func (c *Cart) Recompute(adj Adjustment) Totals {
	return Recompute(c.items, adj)
}

// BuildSaleRequest snapshots the cart into a submission payload. It does not check
// State; callers reject empty carts before submitting.
func (c *Cart) BuildSaleRequest(adj Adjustment, meta SaleMetadata) SaleRequest {
	return BuildSaleRequest(c.items, adj, meta)
}

func (c *Cart) indexOf(key Key) int {
	for i, item := range c.items {
		if item.Key() == key {
			return i
		}
	}
	return -1
}

func (c *Cart) inRange(index int) bool {
	return index >= 0 && index < len(c.items)
}

func initialPrice(candidatePrice, override *decimal.Decimal) decimal.Decimal {
	price := decimal.Zero
	switch {
	case override != nil:
		price = *override
	case candidatePrice != nil:
		price = *candidatePrice
	}
	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}
