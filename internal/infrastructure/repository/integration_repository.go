package repository

import (
	"context"
	"fmt"
	"time"

	"invochat-core-sync-layer/internal/domain"
	"invochat-core-sync-layer/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoIntegrationRepository implements IntegrationRepository using MongoDB.
type MongoIntegrationRepository struct {
	collection *mongo.Collection
}

// NewMongoIntegrationRepository creates a new MongoDB integration repository.
func NewMongoIntegrationRepository(db *mongo.Database) *MongoIntegrationRepository {
	return &MongoIntegrationRepository{
		collection: db.Collection("integrations"),
	}
}

// EnsureIndexes creates the unique (company_id, platform) index and the
// webhook-routing lookup index.
func (r *MongoIntegrationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "company_id", Value: 1}, {Key: "platform", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "platform", Value: 1}, {Key: "shop_domain", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create integration indexes: %w", err)
	}
	return nil
}

// Upsert creates or updates the integration keyed on (company, platform).
// On a match the stored document's _id wins; the passed integration is
// updated to the persisted identity so callers never hand out an id that
// does not exist.
func (r *MongoIntegrationRepository) Upsert(ctx context.Context, integration *domain.Integration) error {
	now := time.Now().UTC()
	filter := bson.M{
		"company_id": integration.CompanyID,
		"platform":   integration.Platform,
	}
	update := bson.M{
		"$set": bson.M{
			"shop_name":   integration.ShopName,
			"shop_domain": integration.ShopDomain,
			"is_active":   integration.IsActive,
			"sync_status": integration.SyncStatus,
			"updated_at":  now,
		},
		"$setOnInsert": bson.M{
			"_id":        integration.ID,
			"company_id": integration.CompanyID,
			"platform":   integration.Platform,
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var stored domain.Integration
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return fmt.Errorf("failed to upsert integration: %w", err)
	}
	integration.ID = stored.ID
	integration.CreatedAt = stored.CreatedAt
	integration.UpdatedAt = stored.UpdatedAt
	return nil
}

// GetByID retrieves an integration by id.
func (r *MongoIntegrationRepository) GetByID(ctx context.Context, id string) (*domain.Integration, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByCompanyAndPlatform retrieves a company's integration for a platform.
func (r *MongoIntegrationRepository) GetByCompanyAndPlatform(ctx context.Context, companyID string, platform domain.Platform) (*domain.Integration, error) {
	return r.findOne(ctx, bson.M{"company_id": companyID, "platform": platform})
}

// GetByShopDomain resolves a webhook's target integration.
func (r *MongoIntegrationRepository) GetByShopDomain(ctx context.Context, platform domain.Platform, shopDomain string) (*domain.Integration, error) {
	return r.findOne(ctx, bson.M{"platform": platform, "shop_domain": shopDomain, "is_active": true})
}

func (r *MongoIntegrationRepository) findOne(ctx context.Context, filter bson.M) (*domain.Integration, error) {
	var integration domain.Integration
	err := r.collection.FindOne(ctx, filter).Decode(&integration)
	if err == mongo.ErrNoDocuments {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get integration: %w", err)
	}
	return &integration, nil
}

// ListByCompany returns all of a company's integrations.
func (r *MongoIntegrationRepository) ListByCompany(ctx context.Context, companyID string) ([]*domain.Integration, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"company_id": companyID})
	if err != nil {
		return nil, fmt.Errorf("failed to list integrations: %w", err)
	}
	defer cursor.Close(ctx)

	var integrations []*domain.Integration
	for cursor.Next(ctx) {
		var integration domain.Integration
		if err := cursor.Decode(&integration); err != nil {
			return nil, fmt.Errorf("failed to decode integration: %w", err)
		}
		integrations = append(integrations, &integration)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return integrations, nil
}

// TransitionStatus sets sync_status only if the current status is in `from`.
func (r *MongoIntegrationRepository) TransitionStatus(ctx context.Context, id string, from []domain.SyncStatus, to domain.SyncStatus) error {
	filter := bson.M{"_id": id, "sync_status": bson.M{"$in": from}}
	update := bson.M{"$set": bson.M{"sync_status": to, "updated_at": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to transition sync status: %w", err)
	}
	if result.MatchedCount == 0 {
		// Distinguish a lost check-and-set from a missing row.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrSyncInProgress
	}
	return nil
}

// SetStatus sets sync_status unconditionally.
func (r *MongoIntegrationRepository) SetStatus(ctx context.Context, id string, to domain.SyncStatus) error {
	update := bson.M{"$set": bson.M{"sync_status": to, "updated_at": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to set sync status: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkSyncSuccess lands the success status and records last_sync_at.
func (r *MongoIntegrationRepository) MarkSyncSuccess(ctx context.Context, id string, at time.Time) error {
	update := bson.M{"$set": bson.M{
		"sync_status":  domain.SyncStatusSuccess,
		"last_sync_at": at,
		"updated_at":   at,
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to mark sync success: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ResetStale flips integrations stuck in a running status back to error.
func (r *MongoIntegrationRepository) ResetStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	filter := bson.M{
		"sync_status": bson.M{"$in": []domain.SyncStatus{
			domain.SyncStatusCredentialsCheck,
			domain.SyncStatusSyncingProducts,
			domain.SyncStatusSyncingSales,
		}},
		"updated_at": bson.M{"$lt": cutoff},
	}
	update := bson.M{"$set": bson.M{"sync_status": domain.SyncStatusError, "updated_at": time.Now().UTC()}}
	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to reset stale statuses: %w", err)
	}
	return result.ModifiedCount, nil
}

// Delete removes the integration.
func (r *MongoIntegrationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete integration: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ ports.IntegrationRepository = (*MongoIntegrationRepository)(nil)
