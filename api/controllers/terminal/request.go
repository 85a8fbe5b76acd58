package terminal

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/angelmondragon/pdv-terminal/api/validators"
	"github.com/angelmondragon/pdv-terminal/internal/cart"
	terminalsvc "github.com/angelmondragon/pdv-terminal/internal/terminal"
	"github.com/shopspring/decimal"
)

// formValue is a form field that may arrive as a JSON number, string or null.
// It keeps the raw text so the cart's tolerant parsers decide what it means.
type formValue string

func (v *formValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = formValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = formValue(n.String())
	return nil
}

func (v *formValue) quantity() int {
	if v == nil {
		return 1
	}
	return cart.ParseQuantity(string(*v))
}

// price returns nil when the field is absent or not numeric.
func (v *formValue) price() *decimal.Decimal {
	if v == nil {
		return nil
	}
	d, ok := cart.LookupAmount(string(*v))
	if !ok {
		return nil
	}
	return &d
}

func (v *formValue) amount() decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return cart.ParseAmount(string(*v))
}

type scanRequest struct {
	Code     string     `json:"code" validate:"required"`
	Quantity *formValue `json:"quantity"`
	Price    *formValue `json:"price"`
}

func (r scanRequest) toInput() terminalsvc.ScanInput {
	return terminalsvc.ScanInput{
		Code:     validators.SanitizeText(r.Code, validators.MaxCodeLen),
		Quantity: r.Quantity.quantity(),
		Price:    r.Price.price(),
	}
}

type manualItemRequest struct {
	SKU      string     `json:"sku"`
	Name     string     `json:"name"`
	Variant  *string    `json:"variant"`
	Price    *formValue `json:"price"`
	Quantity *formValue `json:"quantity"`
}

func (r manualItemRequest) toInput() terminalsvc.ManualInput {
	return terminalsvc.ManualInput{
		SKU:      validators.SanitizeText(r.SKU, validators.MaxCodeLen),
		Name:     validators.SanitizeText(r.Name, validators.MaxNameLen),
		Variant:  validators.SanitizeOptional(r.Variant, validators.MaxCodeLen),
		Price:    r.Price.price(),
		Quantity: r.Quantity.quantity(),
	}
}

type setQuantityRequest struct {
	Quantity formValue `json:"quantity"`
}

type checkoutRequest struct {
	ClientName    *string    `json:"client_name"`
	Payment       string     `json:"payment" validate:"required"`
	Installments  *formValue `json:"installments"`
	Freight       *formValue `json:"freight"`
	DiscountValue *formValue `json:"discount_value"`
	DiscountPct   *formValue `json:"discount_pct"`
	Received      *formValue `json:"received"`
}

func (r checkoutRequest) adjustment() cart.Adjustment {
	return cart.Adjustment{
		Freight:         r.Freight.amount(),
		DiscountValue:   r.DiscountValue.amount(),
		DiscountPercent: r.DiscountPct.amount(),
		AmountReceived:  r.Received.amount(),
	}
}

func (r checkoutRequest) metadata() cart.SaleMetadata {
	return cart.SaleMetadata{
		ClientName:    validators.SanitizeOptional(r.ClientName, validators.MaxNameLen),
		PaymentMethod: validators.SanitizeText(r.Payment, validators.MaxCodeLen),
		Installments:  r.Installments.quantity(),
	}
}

// adjustmentFromQuery reads the checkout form fields that shape snapshot totals.
func adjustmentFromQuery(r *http.Request) cart.Adjustment {
	q := r.URL.Query()
	field := func(key string) decimal.Decimal {
		return cart.ParseAmount(strings.TrimSpace(q.Get(key)))
	}
	return cart.Adjustment{
		Freight:         field("freight"),
		DiscountValue:   field("discount_value"),
		DiscountPercent: field("discount_pct"),
		AmountReceived:  field("received"),
	}
}
