package repository

import (
	"context"
	"fmt"

	"invochat-core-sync-layer/internal/domain"
	"invochat-core-sync-layer/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoWebhookLedger implements the append-only webhook idempotency ledger.
// The unique (integration_id, webhook_id) index turns the insert itself into
// the replay check: a duplicate-key conflict means the delivery was seen
// before.
type MongoWebhookLedger struct {
	collection *mongo.Collection
}

// NewMongoWebhookLedger creates a new ledger backed by MongoDB.
func NewMongoWebhookLedger(db *mongo.Database) *MongoWebhookLedger {
	return &MongoWebhookLedger{
		collection: db.Collection("webhook_events"),
	}
}

// EnsureIndexes creates the unique dedupe index.
func (r *MongoWebhookLedger) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "integration_id", Value: 1}, {Key: "webhook_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create webhook ledger index: %w", err)
	}
	return nil
}

// RecordIfNew inserts the event and reports whether this was the first
// delivery of its webhook id.
func (r *MongoWebhookLedger) RecordIfNew(ctx context.Context, event *domain.WebhookEvent) (bool, error) {
	_, err := r.collection.InsertOne(ctx, event)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to record webhook event: %w", err)
	}
	return true, nil
}

var _ ports.WebhookLedger = (*MongoWebhookLedger)(nil)
