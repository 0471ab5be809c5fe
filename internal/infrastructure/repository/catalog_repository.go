package repository

import (
	"context"
	"fmt"
	"time"

	"invochat-core-sync-layer/internal/domain"
	"invochat-core-sync-layer/internal/ports"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCatalogRepository implements CatalogRepository using MongoDB. Every
// write is an upsert keyed on (company_id, platform, external id), which is
// what makes re-running a sync safe.
type MongoCatalogRepository struct {
	products *mongo.Collection
	variants *mongo.Collection
	orders   *mongo.Collection
}

// NewMongoCatalogRepository creates a new MongoDB catalog repository.
func NewMongoCatalogRepository(db *mongo.Database) *MongoCatalogRepository {
	return &MongoCatalogRepository{
		products: db.Collection("products"),
		variants: db.Collection("product_variants"),
		orders:   db.Collection("orders"),
	}
}

// EnsureIndexes creates the unique external-id indexes and the SKU lookup
// index used by order-line resolution.
func (r *MongoCatalogRepository) EnsureIndexes(ctx context.Context) error {
	externalKey := bson.D{{Key: "company_id", Value: 1}, {Key: "platform", Value: 1}, {Key: "external_id", Value: 1}}
	if _, err := r.products.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    externalKey,
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}
	if _, err := r.variants.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "company_id", Value: 1}, {Key: "platform", Value: 1}, {Key: "external_variant_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "platform", Value: 1}, {Key: "sku", Value: 1}},
		},
	}); err != nil {
		return fmt.Errorf("failed to create variant indexes: %w", err)
	}
	if _, err := r.orders.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "company_id", Value: 1}, {Key: "source_platform", Value: 1}, {Key: "external_order_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}
	return nil
}

// UpsertProduct writes the product and its variants.
func (r *MongoCatalogRepository) UpsertProduct(ctx context.Context, product *domain.Product) error {
	now := time.Now().UTC()
	filter := bson.M{
		"company_id":  product.CompanyID,
		"platform":    product.Platform,
		"external_id": product.ExternalID,
	}
	update := bson.M{
		"$set": bson.M{
			"title":        product.Title,
			"handle":       product.Handle,
			"product_type": product.ProductType,
			"vendor":       product.Vendor,
			"status":       product.Status,
			"tags":         product.Tags,
			"image_url":    product.ImageURL,
			"updated_at":   now,
		},
		"$setOnInsert": bson.M{
			"_id":        uuid.NewString(),
			"company_id": product.CompanyID,
			"platform":   product.Platform,
			"external_id": product.ExternalID,
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var stored domain.Product
	if err := r.products.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", product.ExternalID, err)
	}
	product.ID = stored.ID

	for i := range product.Variants {
		if err := r.upsertVariant(ctx, stored.ID, &product.Variants[i], now); err != nil {
			return err
		}
	}
	return nil
}

// upsertVariant writes the variant. inventory_quantity is seeded from the
// remote figure on insert only; after that it belongs to the recorded-sale
// ledger, and re-upserting must not restore stock those sales consumed. The
// remote figure still lands on every pass, as remote_quantity.
func (r *MongoCatalogRepository) upsertVariant(ctx context.Context, productID string, variant *domain.Variant, now time.Time) error {
	filter := bson.M{
		"company_id":          variant.CompanyID,
		"platform":            variant.Platform,
		"external_variant_id": variant.ExternalID,
	}
	update := bson.M{
		"$set": bson.M{
			"product_id":       productID,
			"sku":              variant.SKU,
			"title":            variant.Title,
			"option1_name":     variant.Option1Name,
			"option1_value":    variant.Option1Value,
			"option2_name":     variant.Option2Name,
			"option2_value":    variant.Option2Value,
			"option3_name":     variant.Option3Name,
			"option3_value":    variant.Option3Value,
			"barcode":          variant.Barcode,
			"price":            variant.PriceCents,
			"compare_at_price": variant.CompareAtCents,
			"cost":             variant.CostCents,
			"remote_quantity":  variant.InventoryQuantity,
			"location":         variant.Location,
			"updated_at":       now,
		},
		"$setOnInsert": bson.M{
			"_id":                 uuid.NewString(),
			"company_id":          variant.CompanyID,
			"platform":            variant.Platform,
			"external_variant_id": variant.ExternalID,
			"inventory_quantity":  variant.InventoryQuantity,
			"created_at":          now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var stored domain.Variant
	if err := r.variants.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return fmt.Errorf("failed to upsert variant %s: %w", variant.ExternalID, err)
	}
	variant.ID = stored.ID
	variant.ProductID = productID
	variant.RemoteQuantity = stored.RemoteQuantity
	variant.InventoryQuantity = stored.InventoryQuantity
	return nil
}

// FindVariant resolves by SKU first, then by external variant id, always
// inside companyID's scope.
func (r *MongoCatalogRepository) FindVariant(ctx context.Context, companyID string, platform domain.Platform, sku, externalVariantID string) (*domain.Variant, error) {
	if sku != "" {
		variant, err := r.findVariant(ctx, bson.M{"company_id": companyID, "platform": platform, "sku": sku})
		if err == nil {
			return variant, nil
		}
		if err != domain.ErrNotFound {
			return nil, err
		}
	}
	if externalVariantID != "" {
		return r.findVariant(ctx, bson.M{"company_id": companyID, "platform": platform, "external_variant_id": externalVariantID})
	}
	return nil, domain.ErrNotFound
}

func (r *MongoCatalogRepository) findVariant(ctx context.Context, filter bson.M) (*domain.Variant, error) {
	var variant domain.Variant
	err := r.variants.FindOne(ctx, filter).Decode(&variant)
	if err == mongo.ErrNoDocuments {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find variant: %w", err)
	}
	return &variant, nil
}

// RecordOrder upserts the order and adjusts variant inventory for line items
// not recorded before. Replaying an unchanged order touches nothing: every
// line id is already present, so no decrement fires and the $set is a no-op
// content-wise.
//
// The read-then-decrement sequence is not a transaction. It relies on the
// sync_status check-and-set admitting one sync run per integration, which
// makes that run the only writer of its orders.
func (r *MongoCatalogRepository) RecordOrder(ctx context.Context, order *domain.Order) error {
	now := time.Now().UTC()
	filter := bson.M{
		"company_id":        order.CompanyID,
		"source_platform":   order.Platform,
		"external_order_id": order.ExternalID,
	}

	var existing domain.Order
	seen := map[string]bool{}
	err := r.orders.FindOne(ctx, filter).Decode(&existing)
	switch err {
	case nil:
		for _, line := range existing.LineItems {
			seen[line.ExternalLineID] = true
		}
	case mongo.ErrNoDocuments:
		// first delivery of this order
	default:
		return fmt.Errorf("failed to load order %s: %w", order.ExternalID, err)
	}

	// Decrement inventory only for lines this order has not recorded yet.
	for _, line := range order.LineItems {
		if seen[line.ExternalLineID] || line.VariantID == "" {
			continue
		}
		if _, err := r.variants.UpdateOne(ctx,
			bson.M{"_id": line.VariantID},
			bson.M{"$inc": bson.M{"inventory_quantity": -line.Quantity}, "$set": bson.M{"updated_at": now}},
		); err != nil {
			return fmt.Errorf("failed to adjust inventory for variant %s: %w", line.VariantID, err)
		}
	}

	update := bson.M{
		"$set": bson.M{
			"order_number":       order.OrderNumber,
			"financial_status":   order.FinancialStatus,
			"fulfillment_status": order.FulfillmentStatus,
			"currency":           order.Currency,
			"subtotal":           order.SubtotalCents,
			"total_tax":          order.TaxCents,
			"total_shipping":     order.ShippingCents,
			"total_discounts":    order.DiscountCents,
			"total_amount":       order.TotalCents,
			"line_items":         order.LineItems,
			"placed_at":          order.PlacedAt,
			"updated_at":         now,
		},
		"$setOnInsert": bson.M{
			"_id":               uuid.NewString(),
			"company_id":        order.CompanyID,
			"source_platform":   order.Platform,
			"external_order_id": order.ExternalID,
			"created_at":        now,
		},
	}
	if _, err := r.orders.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to record order %s: %w", order.ExternalID, err)
	}
	return nil
}

var _ ports.CatalogRepository = (*MongoCatalogRepository)(nil)
