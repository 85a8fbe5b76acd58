package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSaleRequest(t *testing.T) {
	t.Parallel()

	c := New()
	c.AddOrIncrement(Candidate{SKU: "789", Name: "Camiseta", Variant: ptr("M"), Price: ptr(dec("39.90"))}, 2, nil)
	c.AddOrIncrement(Candidate{SKU: "123", Name: "Boné", Price: ptr(dec("25"))}, 1, nil)

	req := c.BuildSaleRequest(
		Adjustment{Freight: dec("5"), DiscountValue: dec("1.5"), DiscountPercent: dec("10"), AmountReceived: dec("120")},
		SaleMetadata{ClientName: ptr("  Ana  "), PaymentMethod: "pix", Installments: 0},
	)

	require.NotNil(t, req.ClientName)
	assert.Equal(t, "Ana", *req.ClientName)
	assert.Equal(t, "pix", req.PaymentMethod)
	assert.Equal(t, 1, req.Installments)
	assert.True(t, req.Freight.Equal(dec("5")))
	assert.True(t, req.DiscountValue.Equal(dec("1.5")))
	assert.True(t, req.DiscountPercent.Equal(dec("10")))
	assert.True(t, req.AmountReceived.Equal(dec("120")))
	// subtotal 104.80, discount 1.5 + 10.48 = 11.98, total 97.82
	assert.Equal(t, "104.8", req.Subtotal.String())
	assert.Equal(t, "97.82", req.Total.String())

	require.Len(t, req.Items, 2)
	assert.Equal(t, "789", req.Items[0].SKU)
	assert.Equal(t, "Camiseta", req.Items[0].Name)
	assert.Equal(t, "M", *req.Items[0].Variant)
	assert.Equal(t, 2, req.Items[0].Quantity)
	assert.Nil(t, req.Items[1].Variant)
	assert.True(t, req.Items[1].UnitPrice.Equal(dec("25")))
}

func TestBuildSaleRequestRoundsToCents(t *testing.T) {
	t.Parallel()

	items := []LineItem{{SKU: "A", Quantity: 1, UnitPrice: dec("10.005")}}
	req := BuildSaleRequest(items, Adjustment{DiscountPercent: dec("0")}, SaleMetadata{PaymentMethod: "dinheiro", Installments: 3})

	assert.Equal(t, "10.01", req.Subtotal.StringFixed(2))
	assert.Equal(t, "10.01", req.Total.StringFixed(2))
	assert.Equal(t, 3, req.Installments)
	assert.Nil(t, req.ClientName)
}

func TestBuildSaleRequestBlankClientIsNil(t *testing.T) {
	t.Parallel()

	req := BuildSaleRequest(nil, Adjustment{}, SaleMetadata{ClientName: ptr("   ")})
	assert.Nil(t, req.ClientName)
	assert.Empty(t, req.Items)
	assert.True(t, req.Total.IsZero())
}

func TestBuildSaleRequestDoesNotMutateCart(t *testing.T) {
	t.Parallel()

	c := New()
	c.AddOrIncrement(product("A", nil, "10"), 2, nil)
	before := c.Items()

	req := c.BuildSaleRequest(Adjustment{}, SaleMetadata{PaymentMethod: "pix"})
	req.Items[0].Quantity = 50

	assert.Equal(t, before, c.Items())
}
