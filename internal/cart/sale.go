package cart

import (
	"strings"

	"github.com/shopspring/decimal"
)

const moneyPlaces = 2

// SaleMetadata is what the checkout form adds on top of the rows.
type SaleMetadata struct {
	ClientName    *string
	PaymentMethod string
	Installments  int
}

// SaleLine is one submitted row.
type SaleLine struct {
	SKU       string
	Name      string
	Variant   *string
	Quantity  int
	UnitPrice decimal.Decimal
}

// SaleRequest is the payload handed to the sale submission service.
type SaleRequest struct {
	ClientName      *string
	PaymentMethod   string
	Installments    int
	DiscountValue   decimal.Decimal
	DiscountPercent decimal.Decimal
	Freight         decimal.Decimal
	AmountReceived  decimal.Decimal
	Subtotal        decimal.Decimal
	Total           decimal.Decimal
	Items           []SaleLine
}

// BuildSaleRequest assembles a submission from items. Subtotal and total are rounded
// to cents; adjustment fields are carried as given after clamping negatives.
func BuildSaleRequest(items []LineItem, adj Adjustment, meta SaleMetadata) SaleRequest {
	adj = adj.Normalized()
	totals := Recompute(items, adj)

	lines := make([]SaleLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, SaleLine{
			SKU:       item.SKU,
			Name:      item.Name,
			Variant:   variantSnapshot(item.Variant),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	return SaleRequest{
		ClientName:      clientName(meta.ClientName),
		PaymentMethod:   strings.TrimSpace(meta.PaymentMethod),
		Installments:    installments(meta.Installments),
		DiscountValue:   adj.DiscountValue,
		DiscountPercent: adj.DiscountPercent,
		Freight:         adj.Freight,
		AmountReceived:  adj.AmountReceived,
		Subtotal:        totals.Subtotal.Round(moneyPlaces),
		Total:           totals.Total.Round(moneyPlaces),
		Items:           lines,
	}
}

func installments(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func clientName(name *string) *string {
	if name == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
