package repository

import (
	"context"
	"fmt"
	"time"

	"invochat-core-sync-layer/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoReportRefresher recomputes the precomputed per-company aggregates the
// dashboard and dead-stock reports read. Refresh runs after every successful
// sync; readers only ever see the materialized document, never the raw
// collections.
type MongoReportRefresher struct {
	orders   *mongo.Collection
	variants *mongo.Collection
	metrics  *mongo.Collection
}

// NewMongoReportRefresher creates a new refresher.
func NewMongoReportRefresher(db *mongo.Database) *MongoReportRefresher {
	return &MongoReportRefresher{
		orders:   db.Collection("orders"),
		variants: db.Collection("product_variants"),
		metrics:  db.Collection("company_metrics"),
	}
}

// RefreshCompanyMetrics recomputes the aggregate document for one company.
func (r *MongoReportRefresher) RefreshCompanyMetrics(ctx context.Context, companyID string) error {
	revenue, orderCount, err := r.orderTotals(ctx, companyID)
	if err != nil {
		return err
	}
	inventoryValue, lowStock, err := r.inventoryTotals(ctx, companyID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"total_revenue":   revenue,
			"total_orders":    orderCount,
			"inventory_value": inventoryValue,
			"low_stock_count": lowStock,
			"refreshed_at":    now,
		},
		"$setOnInsert": bson.M{"company_id": companyID},
	}
	_, err = r.metrics.UpdateOne(ctx, bson.M{"company_id": companyID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to write company metrics: %w", err)
	}
	return nil
}

func (r *MongoReportRefresher) orderTotals(ctx context.Context, companyID string) (int64, int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"company_id": companyID}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"revenue": bson.M{"$sum": "$total_amount"},
			"orders":  bson.M{"$sum": 1},
		}}},
	}
	var result struct {
		Revenue int64 `bson:"revenue"`
		Orders  int64 `bson:"orders"`
	}
	if err := r.aggregateOne(ctx, r.orders, pipeline, &result); err != nil {
		return 0, 0, fmt.Errorf("failed to aggregate orders: %w", err)
	}
	return result.Revenue, result.Orders, nil
}

func (r *MongoReportRefresher) inventoryTotals(ctx context.Context, companyID string) (int64, int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"company_id": companyID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"value": bson.M{"$sum": bson.M{"$multiply": bson.A{"$cost", "$inventory_quantity"}}},
			"low": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$lte": bson.A{"$inventory_quantity", "$reorder_point"}}, 1, 0,
			}}},
		}}},
	}
	var result struct {
		Value int64 `bson:"value"`
		Low   int64 `bson:"low"`
	}
	if err := r.aggregateOne(ctx, r.variants, pipeline, &result); err != nil {
		return 0, 0, fmt.Errorf("failed to aggregate inventory: %w", err)
	}
	return result.Value, result.Low, nil
}

func (r *MongoReportRefresher) aggregateOne(ctx context.Context, c *mongo.Collection, pipeline mongo.Pipeline, out interface{}) error {
	cursor, err := c.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	if cursor.Next(ctx) {
		if err := cursor.Decode(out); err != nil {
			return err
		}
	}
	return cursor.Err()
}

var _ ports.ReportRefresher = (*MongoReportRefresher)(nil)
