package shopify

import (
	"strconv"
	"strings"
	"time"

	"invochat-core-sync-layer/internal/domain"
	"invochat-core-sync-layer/internal/infrastructure/platform"

	goshopify "github.com/bold-commerce/go-shopify/v4"
)

// mapProduct normalizes a remote product into the internal schema. Prices
// land as integer cents; option attributes flatten into the fixed three-pair
// set; a nil tag list becomes an empty set.
func mapProduct(p *goshopify.Product) domain.Product {
	product := domain.Product{
		ExternalID:  strconv.FormatUint(p.Id, 10),
		Title:       p.Title,
		Handle:      p.Handle,
		ProductType: p.ProductType,
		Vendor:      p.Vendor,
		Status:      string(p.Status),
		Tags:        splitTags(p.Tags),
	}
	if len(p.Images) > 0 {
		product.ImageURL = p.Images[0].Src
	}

	optionNames := make([]string, 0, 3)
	for _, opt := range p.Options {
		optionNames = append(optionNames, opt.Name)
	}

	product.Variants = make([]domain.Variant, 0, len(p.Variants))
	for i := range p.Variants {
		product.Variants = append(product.Variants, mapVariant(&p.Variants[i], optionNames))
	}
	return product
}

func mapVariant(v *goshopify.Variant, optionNames []string) domain.Variant {
	variant := domain.Variant{
		ExternalID:        strconv.FormatUint(v.Id, 10),
		SKU:               v.Sku,
		Title:             v.Title,
		Barcode:           v.Barcode,
		PriceCents:        platform.CentsFromDecimal(v.Price),
		CompareAtCents:    platform.CentsFromDecimal(v.CompareAtPrice),
		InventoryQuantity: v.InventoryQuantity,
	}
	values := []string{v.Option1, v.Option2, v.Option3}
	names := make([]string, 3)
	copy(names, optionNames)
	if values[0] != "" {
		variant.Option1Name, variant.Option1Value = names[0], values[0]
	}
	if values[1] != "" {
		variant.Option2Name, variant.Option2Value = names[1], values[1]
	}
	if values[2] != "" {
		variant.Option3Name, variant.Option3Value = names[2], values[2]
	}
	return variant
}

// mapOrder normalizes a remote order. Line items keep the SKU and external
// variant reference; the orchestrator resolves them to internal variants.
func mapOrder(o *goshopify.Order) domain.Order {
	order := domain.Order{
		ExternalID:        strconv.FormatUint(o.Id, 10),
		OrderNumber:       o.Name,
		FinancialStatus:   string(o.FinancialStatus),
		FulfillmentStatus: string(o.FulfillmentStatus),
		Currency:          o.Currency,
		SubtotalCents:     platform.CentsFromDecimal(o.SubtotalPrice),
		TaxCents:          platform.CentsFromDecimal(o.TotalTax),
		DiscountCents:     platform.CentsFromDecimal(o.TotalDiscounts),
		TotalCents:        platform.CentsFromDecimal(o.TotalPrice),
	}
	if order.FulfillmentStatus == "" {
		order.FulfillmentStatus = "unfulfilled"
	}
	if o.CreatedAt != nil {
		order.PlacedAt = *o.CreatedAt
	} else {
		order.PlacedAt = time.Now().UTC()
	}
	for _, line := range o.ShippingLines {
		order.ShippingCents += platform.CentsFromDecimal(line.Price)
	}

	order.LineItems = make([]domain.OrderLineItem, 0, len(o.LineItems))
	for _, item := range o.LineItems {
		order.LineItems = append(order.LineItems, domain.OrderLineItem{
			ExternalLineID:    strconv.FormatUint(item.Id, 10),
			ExternalVariantID: strconv.FormatUint(item.VariantId, 10),
			SKU:               item.SKU,
			ProductName:       item.Title,
			VariantTitle:      item.VariantTitle,
			Quantity:          item.Quantity,
			PriceCents:        platform.CentsFromDecimal(item.Price),
			DiscountCents:     platform.CentsFromDecimal(item.TotalDiscount),
		})
	}
	return order
}

func splitTags(tags string) []string {
	if tags == "" {
		return []string{}
	}
	parts := strings.Split(tags, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
