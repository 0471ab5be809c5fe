package domain

import "time"

// Product is the internal representation of a catalog product, keyed by an
// internal UUID plus the (company, platform, external id) triple the upsert
// path is idempotent on.
type Product struct {
	ID          string    `json:"id" bson:"_id"`
	CompanyID   string    `json:"company_id" bson:"company_id"`
	Platform    Platform  `json:"platform" bson:"platform"`
	ExternalID  string    `json:"external_id" bson:"external_id"`
	Title       string    `json:"title" bson:"title"`
	Handle      string    `json:"handle,omitempty" bson:"handle,omitempty"`
	ProductType string    `json:"product_type,omitempty" bson:"product_type,omitempty"`
	Vendor      string    `json:"vendor,omitempty" bson:"vendor,omitempty"`
	Status      string    `json:"status,omitempty" bson:"status,omitempty"`
	Tags        []string  `json:"tags" bson:"tags"`
	ImageURL    string    `json:"image_url,omitempty" bson:"image_url,omitempty"`
	Variants    []Variant `json:"variants" bson:"-"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// Variant is a sellable unit of a product. Option attributes are flattened
// into a fixed set of three name/value pairs. All money fields are integer
// minor-currency units (cents).
//
// InventoryQuantity is the locally tracked stock figure: seeded from the
// platform on first sight, then moved only by recorded sales. RemoteQuantity
// holds the platform's figure as of the latest sync.
type Variant struct {
	ID                 string    `json:"id" bson:"_id"`
	ProductID          string    `json:"product_id" bson:"product_id"`
	CompanyID          string    `json:"company_id" bson:"company_id"`
	Platform           Platform  `json:"platform" bson:"platform"`
	ExternalID         string    `json:"external_variant_id" bson:"external_variant_id"`
	SKU                string    `json:"sku" bson:"sku"`
	Title              string    `json:"title,omitempty" bson:"title,omitempty"`
	Option1Name        string    `json:"option1_name,omitempty" bson:"option1_name,omitempty"`
	Option1Value       string    `json:"option1_value,omitempty" bson:"option1_value,omitempty"`
	Option2Name        string    `json:"option2_name,omitempty" bson:"option2_name,omitempty"`
	Option2Value       string    `json:"option2_value,omitempty" bson:"option2_value,omitempty"`
	Option3Name        string    `json:"option3_name,omitempty" bson:"option3_name,omitempty"`
	Option3Value       string    `json:"option3_value,omitempty" bson:"option3_value,omitempty"`
	Barcode            string    `json:"barcode,omitempty" bson:"barcode,omitempty"`
	PriceCents         int64     `json:"price" bson:"price"`
	CompareAtCents     int64     `json:"compare_at_price,omitempty" bson:"compare_at_price,omitempty"`
	CostCents          int64     `json:"cost" bson:"cost"`
	InventoryQuantity  int       `json:"inventory_quantity" bson:"inventory_quantity"`
	RemoteQuantity     int       `json:"remote_quantity" bson:"remote_quantity"`
	ReservedQuantity   int       `json:"reserved_quantity" bson:"reserved_quantity"`
	InTransitQuantity  int       `json:"in_transit_quantity" bson:"in_transit_quantity"`
	ReorderPoint       int       `json:"reorder_point" bson:"reorder_point"`
	ReorderQuantity    int       `json:"reorder_quantity" bson:"reorder_quantity"`
	Location           string    `json:"location,omitempty" bson:"location,omitempty"`
	CreatedAt          time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" bson:"updated_at"`
}

// Order is a recorded sale pulled from a platform. Money fields are cents.
type Order struct {
	ID                string          `json:"id" bson:"_id"`
	CompanyID         string          `json:"company_id" bson:"company_id"`
	Platform          Platform        `json:"source_platform" bson:"source_platform"`
	ExternalID        string          `json:"external_order_id" bson:"external_order_id"`
	OrderNumber       string          `json:"order_number" bson:"order_number"`
	FinancialStatus   string          `json:"financial_status" bson:"financial_status"`
	FulfillmentStatus string          `json:"fulfillment_status" bson:"fulfillment_status"`
	Currency          string          `json:"currency" bson:"currency"`
	SubtotalCents     int64           `json:"subtotal" bson:"subtotal"`
	TaxCents          int64           `json:"total_tax" bson:"total_tax"`
	ShippingCents     int64           `json:"total_shipping" bson:"total_shipping"`
	DiscountCents     int64           `json:"total_discounts" bson:"total_discounts"`
	TotalCents        int64           `json:"total_amount" bson:"total_amount"`
	LineItems         []OrderLineItem `json:"line_items" bson:"line_items"`
	PlacedAt          time.Time       `json:"placed_at" bson:"placed_at"`
	CreatedAt         time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" bson:"updated_at"`
}

// OrderLineItem references the sold variant. ExternalVariantID and SKU carry
// the remote reference; VariantID is filled once the orchestrator resolves it
// within the order's company scope.
type OrderLineItem struct {
	ExternalLineID    string `json:"external_line_item_id" bson:"external_line_item_id"`
	VariantID         string `json:"variant_id,omitempty" bson:"variant_id,omitempty"`
	ExternalVariantID string `json:"external_variant_id,omitempty" bson:"external_variant_id,omitempty"`
	SKU               string `json:"sku,omitempty" bson:"sku,omitempty"`
	ProductName       string `json:"product_name,omitempty" bson:"product_name,omitempty"`
	VariantTitle      string `json:"variant_title,omitempty" bson:"variant_title,omitempty"`
	Quantity          int    `json:"quantity" bson:"quantity"`
	PriceCents        int64  `json:"price" bson:"price"`
	DiscountCents     int64  `json:"total_discount" bson:"total_discount"`
	TaxCents          int64  `json:"tax_amount" bson:"tax_amount"`
	CostAtTimeCents   int64  `json:"cost_at_time" bson:"cost_at_time"`
}
