package terminal

import (
	"time"

	"github.com/angelmondragon/pdv-terminal/internal/cart"
	"github.com/shopspring/decimal"
)

// Item is one cart row as the render layer sees it.
type Item struct {
	Index     int
	SKU       string
	Name      string
	Variant   *string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
	ImageURL  *string
}

// Snapshot is the full state of a session under the caller's adjustment.
type Snapshot struct {
	SessionID string
	Operator  string
	State     cart.State
	Items     []Item
	ItemCount int
	Totals    cart.Totals
	OpenedAt  time.Time
	UpdatedAt time.Time
}

// CheckoutResult reports a submitted sale. Snapshot is the emptied session.
type CheckoutResult struct {
	SaleID    int64
	CreatedAt string
	Totals    cart.Totals
	ItemCount int
	Snapshot  Snapshot
}

// snapshotLocked must be called with s.mu held.
func snapshotLocked(s *session, adj cart.Adjustment) Snapshot {
	rows := s.cart.Items()
	items := make([]Item, 0, len(rows))
	count := 0
	for i, row := range rows {
		items = append(items, Item{
			Index:     i,
			SKU:       row.SKU,
			Name:      row.Name,
			Variant:   row.Variant,
			Quantity:  row.Quantity,
			UnitPrice: row.UnitPrice,
			LineTotal: row.LineTotal(),
			ImageURL:  row.ImageURL,
		})
		count += row.Quantity
	}
	return Snapshot{
		SessionID: s.id,
		Operator:  s.owner,
		State:     s.cart.State(),
		Items:     items,
		ItemCount: count,
		Totals:    s.cart.Recompute(adj),
		OpenedAt:  s.openedAt,
		UpdatedAt: s.lastSeen,
	}
}
