package terminal

import (
	"time"

	"github.com/angelmondragon/pdv-terminal/internal/cart"
	terminalsvc "github.com/angelmondragon/pdv-terminal/internal/terminal"
	"github.com/angelmondragon/pdv-terminal/pkg/types"
)

type totalsResponse struct {
	Subtotal      types.Money `json:"subtotal"`
	DiscountTotal types.Money `json:"discount_total"`
	Total         types.Money `json:"total"`
	Change        types.Money `json:"change"`
}

type itemResponse struct {
	Index     int         `json:"index"`
	SKU       string      `json:"sku"`
	Name      string      `json:"name"`
	Variant   *string     `json:"variant"`
	Quantity  int         `json:"quantity"`
	UnitPrice types.Money `json:"unit_price"`
	LineTotal types.Money `json:"line_total"`
	ImageURL  *string     `json:"image_url,omitempty"`
}

type sessionResponse struct {
	SessionID string         `json:"session_id"`
	Operator  string         `json:"operator"`
	State     cart.State     `json:"state"`
	Items     []itemResponse `json:"items"`
	ItemCount int            `json:"item_count"`
	Totals    totalsResponse `json:"totals"`
	OpenedAt  time.Time      `json:"opened_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type checkoutResponse struct {
	SaleID    int64           `json:"sale_id"`
	CreatedAt string          `json:"created_at,omitempty"`
	Totals    totalsResponse  `json:"totals"`
	ItemCount int             `json:"item_count"`
	Session   sessionResponse `json:"session"`
}

func newTotals(t cart.Totals) totalsResponse {
	return totalsResponse{
		Subtotal:      types.NewMoney(t.Subtotal),
		DiscountTotal: types.NewMoney(t.DiscountTotal),
		Total:         types.NewMoney(t.Total),
		Change:        types.NewMoney(t.Change),
	}
}

func newSessionResponse(s terminalsvc.Snapshot) sessionResponse {
	items := make([]itemResponse, 0, len(s.Items))
	for _, item := range s.Items {
		items = append(items, itemResponse{
			Index:     item.Index,
			SKU:       item.SKU,
			Name:      item.Name,
			Variant:   item.Variant,
			Quantity:  item.Quantity,
			UnitPrice: types.NewMoney(item.UnitPrice),
			LineTotal: types.NewMoney(item.LineTotal),
			ImageURL:  item.ImageURL,
		})
	}
	return sessionResponse{
		SessionID: s.SessionID,
		Operator:  s.Operator,
		State:     s.State,
		Items:     items,
		ItemCount: s.ItemCount,
		Totals:    newTotals(s.Totals),
		OpenedAt:  s.OpenedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func newCheckoutResponse(res *terminalsvc.CheckoutResult) checkoutResponse {
	return checkoutResponse{
		SaleID:    res.SaleID,
		CreatedAt: res.CreatedAt,
		Totals:    newTotals(res.Totals),
		ItemCount: res.ItemCount,
		Session:   newSessionResponse(res.Snapshot),
	}
}
