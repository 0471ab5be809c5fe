package woocommerce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWooProductToDomain(t *testing.T) {
	stock := 24
	p := &wooProduct{
		ID:            42,
		Name:          "Premium Quality Hoodie",
		Slug:          "premium-quality-hoodie",
		Type:          "simple",
		Status:        "publish",
		SKU:           "HOODIE-42",
		Price:         "45.50",
		RegularPrice:  "59.00",
		StockQuantity: &stock,
		Tags:          []wooTag{{Name: "apparel"}, {Name: "winter"}},
	}
	p.Images = append(p.Images, struct {
		Src string `json:"src"`
	}{Src: "https://shop.example.com/hoodie.jpg"})

	product := p.toDomain()

	assert.Equal(t, "42", product.ExternalID)
	assert.Equal(t, []string{"apparel", "winter"}, product.Tags)
	assert.Equal(t, "https://shop.example.com/hoodie.jpg", product.ImageURL)

	// Simple products map to a single variant sharing the external id.
	require.Len(t, product.Variants, 1)
	v := product.Variants[0]
	assert.Equal(t, "42", v.ExternalID)
	assert.Equal(t, "HOODIE-42", v.SKU)
	assert.Equal(t, int64(4550), v.PriceCents)
	assert.Equal(t, int64(5900), v.CompareAtCents)
	assert.Equal(t, 24, v.InventoryQuantity)
}

func TestWooProductNoTagsYieldsEmptySlice(t *testing.T) {
	p := &wooProduct{ID: 1}
	product := p.toDomain()
	require.NotNil(t, product.Tags)
	assert.Empty(t, product.Tags)
}

func TestWooOrderToDomain(t *testing.T) {
	o := &wooOrder{
		ID:            727,
		Number:        "727",
		Status:        "processing",
		Currency:      "EUR",
		Total:         "110.50",
		TotalTax:      "10.50",
		ShippingTotal: "5.00",
		DiscountTotal: "4.00",
		DateCreated:   "2026-03-14T09:30:00",
	}
	o.LineItems = append(o.LineItems, struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		ProductID   int64  `json:"product_id"`
		VariationID int64  `json:"variation_id"`
		SKU         string `json:"sku"`
		Quantity    int    `json:"quantity"`
		Subtotal    string `json:"subtotal"`
		Total       string `json:"total"`
	}{
		ID: 315, Name: "Hoodie", ProductID: 42, VariationID: 0,
		SKU: "HOODIE-42", Quantity: 2, Subtotal: "99.00", Total: "95.00",
	})

	order := o.toDomain()

	assert.Equal(t, "727", order.ExternalID)
	assert.Equal(t, "paid", order.FinancialStatus)
	assert.Equal(t, "unfulfilled", order.FulfillmentStatus)
	assert.Equal(t, int64(11050), order.TotalCents)
	assert.Equal(t, int64(1050), order.TaxCents)
	assert.Equal(t, int64(500), order.ShippingCents)
	assert.Equal(t, int64(400), order.DiscountCents)
	// subtotal = total - tax - shipping + discount
	assert.Equal(t, int64(9900), order.SubtotalCents)
	assert.Equal(t, time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC), order.PlacedAt)

	require.Len(t, order.LineItems, 1)
	line := order.LineItems[0]
	assert.Equal(t, "315", line.ExternalLineID)
	// No variation id, so the product id carries the external reference.
	assert.Equal(t, "42", line.ExternalVariantID)
	assert.Equal(t, int64(4950), line.PriceCents)
	assert.Equal(t, int64(400), line.DiscountCents)
}

func TestFinancialStatusFolding(t *testing.T) {
	tests := map[string]string{
		"pending":    "pending",
		"on-hold":    "pending",
		"processing": "paid",
		"completed":  "paid",
		"refunded":   "refunded",
		"cancelled":  "voided",
		"failed":     "voided",
	}
	for wooStatus, want := range tests {
		assert.Equal(t, want, financialStatus(wooStatus), wooStatus)
	}
}

func TestFulfillmentStatusFolding(t *testing.T) {
	assert.Equal(t, "fulfilled", fulfillmentStatus("completed"))
	assert.Equal(t, "unfulfilled", fulfillmentStatus("processing"))
}
