package woocommerce

import (
	"strconv"
	"time"

	"invochat-core-sync-layer/internal/domain"
	"invochat-core-sync-layer/internal/infrastructure/platform"
)

// wooProduct is the subset of the WooCommerce product payload the sync uses.
// WooCommerce sends money amounts as decimal strings.
type wooProduct struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Slug          string   `json:"slug"`
	Type          string   `json:"type"`
	Status        string   `json:"status"`
	SKU           string   `json:"sku"`
	Price         string   `json:"price"`
	RegularPrice  string   `json:"regular_price"`
	StockQuantity *int     `json:"stock_quantity"`
	Tags          []wooTag `json:"tags"`
	Images        []struct {
		Src string `json:"src"`
	} `json:"images"`
	Attributes []struct {
		Name    string   `json:"name"`
		Options []string `json:"options"`
	} `json:"attributes"`
	DateCreated string `json:"date_created"`
}

type wooTag struct {
	Name string `json:"name"`
}

// toDomain maps a product to the internal schema. WooCommerce simple
// products carry their price and stock directly, so each maps to a product
// with a single variant keyed by the same external id.
func (p *wooProduct) toDomain() domain.Product {
	externalID := strconv.FormatInt(p.ID, 10)
	tags := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		tags = append(tags, t.Name)
	}

	variant := domain.Variant{
		ExternalID: externalID,
		SKU:        p.SKU,
		PriceCents: platform.CentsFromString(p.Price),
	}
	if p.RegularPrice != "" && p.RegularPrice != p.Price {
		variant.CompareAtCents = platform.CentsFromString(p.RegularPrice)
	}
	if p.StockQuantity != nil {
		variant.InventoryQuantity = *p.StockQuantity
	}
	for i, attr := range p.Attributes {
		if i >= 3 || len(attr.Options) == 0 {
			break
		}
		switch i {
		case 0:
			variant.Option1Name, variant.Option1Value = attr.Name, attr.Options[0]
		case 1:
			variant.Option2Name, variant.Option2Value = attr.Name, attr.Options[0]
		case 2:
			variant.Option3Name, variant.Option3Value = attr.Name, attr.Options[0]
		}
	}

	product := domain.Product{
		ExternalID:  externalID,
		Title:       p.Name,
		Handle:      p.Slug,
		ProductType: p.Type,
		Status:      p.Status,
		Tags:        tags,
		Variants:    []domain.Variant{variant},
	}
	if len(p.Images) > 0 {
		product.ImageURL = p.Images[0].Src
	}
	return product
}

// wooOrder is the subset of the WooCommerce order payload the sync uses.
type wooOrder struct {
	ID            int64  `json:"id"`
	Number        string `json:"number"`
	Status        string `json:"status"`
	Currency      string `json:"currency"`
	Total         string `json:"total"`
	TotalTax      string `json:"total_tax"`
	ShippingTotal string `json:"shipping_total"`
	DiscountTotal string `json:"discount_total"`
	DateCreated   string `json:"date_created_gmt"`
	LineItems     []struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		ProductID   int64  `json:"product_id"`
		VariationID int64  `json:"variation_id"`
		SKU         string `json:"sku"`
		Quantity    int    `json:"quantity"`
		Subtotal    string `json:"subtotal"`
		Total       string `json:"total"`
	} `json:"line_items"`
}

func (o *wooOrder) toDomain() domain.Order {
	order := domain.Order{
		ExternalID:        strconv.FormatInt(o.ID, 10),
		OrderNumber:       o.Number,
		FinancialStatus:   financialStatus(o.Status),
		FulfillmentStatus: fulfillmentStatus(o.Status),
		Currency:          o.Currency,
		TaxCents:          platform.CentsFromString(o.TotalTax),
		ShippingCents:     platform.CentsFromString(o.ShippingTotal),
		DiscountCents:     platform.CentsFromString(o.DiscountTotal),
		TotalCents:        platform.CentsFromString(o.Total),
		PlacedAt:          parseWooTime(o.DateCreated),
	}
	order.SubtotalCents = order.TotalCents - order.TaxCents - order.ShippingCents + order.DiscountCents

	order.LineItems = make([]domain.OrderLineItem, 0, len(o.LineItems))
	for _, item := range o.LineItems {
		externalVariant := item.VariationID
		if externalVariant == 0 {
			externalVariant = item.ProductID
		}
		line := domain.OrderLineItem{
			ExternalLineID:    strconv.FormatInt(item.ID, 10),
			ExternalVariantID: strconv.FormatInt(externalVariant, 10),
			SKU:               item.SKU,
			ProductName:       item.Name,
			Quantity:          item.Quantity,
		}
		if item.Quantity > 0 {
			line.PriceCents = platform.CentsFromString(item.Subtotal) / int64(item.Quantity)
		}
		line.DiscountCents = platform.CentsFromString(item.Subtotal) - platform.CentsFromString(item.Total)
		order.LineItems = append(order.LineItems, line)
	}
	return order
}

// financialStatus folds WooCommerce's single order status into the internal
// financial status vocabulary.
func financialStatus(status string) string {
	switch status {
	case "pending", "on-hold":
		return "pending"
	case "processing", "completed":
		return "paid"
	case "refunded":
		return "refunded"
	case "cancelled", "failed":
		return "voided"
	}
	return status
}

func fulfillmentStatus(status string) string {
	switch status {
	case "completed":
		return "fulfilled"
	default:
		return "unfulfilled"
	}
}

func parseWooTime(s string) time.Time {
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	return time.Now().UTC()
}
