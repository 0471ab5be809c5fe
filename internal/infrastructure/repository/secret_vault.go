package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"invochat-core-sync-layer/internal/domain"
	"invochat-core-sync-layer/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type secretDoc struct {
	CompanyID string          `bson:"company_id"`
	Platform  domain.Platform `bson:"platform"`
	Blob      string          `bson:"blob"` // encrypted credential JSON
	CreatedAt time.Time       `bson:"created_at"`
	UpdatedAt time.Time       `bson:"updated_at"`
}

// MongoSecretVault stores per-(company, platform) credentials encrypted at
// rest. The blob only ever leaves this type in decrypted form through Get.
type MongoSecretVault struct {
	collection *mongo.Collection
	encryption ports.EncryptionService
}

// NewMongoSecretVault creates a vault over the given encryption service.
func NewMongoSecretVault(db *mongo.Database, encryption ports.EncryptionService) *MongoSecretVault {
	return &MongoSecretVault{
		collection: db.Collection("secrets"),
		encryption: encryption,
	}
}

// EnsureIndexes creates the unique (company_id, platform) index.
func (v *MongoSecretVault) EnsureIndexes(ctx context.Context) error {
	_, err := v.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "company_id", Value: 1}, {Key: "platform", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create secret index: %w", err)
	}
	return nil
}

// Store encrypts and upserts the credential set.
func (v *MongoSecretVault) Store(ctx context.Context, companyID string, platform domain.Platform, creds domain.Credentials) error {
	plaintext, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	blob, err := v.encryption.Encrypt(string(plaintext))
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}

	now := time.Now().UTC()
	filter := bson.M{"company_id": companyID, "platform": platform}
	update := bson.M{
		"$set":         bson.M{"blob": blob, "updated_at": now},
		"$setOnInsert": bson.M{"company_id": companyID, "platform": platform, "created_at": now},
	}
	if _, err := v.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to store secret: %w", err)
	}
	return nil
}

// Get decrypts and returns the credential set, or ErrMissingCredentials.
func (v *MongoSecretVault) Get(ctx context.Context, companyID string, platform domain.Platform) (domain.Credentials, error) {
	var doc secretDoc
	err := v.collection.FindOne(ctx, bson.M{"company_id": companyID, "platform": platform}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return domain.Credentials{}, domain.ErrMissingCredentials
	}
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("failed to get secret: %w", err)
	}

	plaintext, err := v.encryption.Decrypt(doc.Blob)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("failed to decrypt credentials: %w", err)
	}
	var creds domain.Credentials
	if err := json.Unmarshal([]byte(plaintext), &creds); err != nil {
		return domain.Credentials{}, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}
	return creds, nil
}

// Delete removes the credential set.
func (v *MongoSecretVault) Delete(ctx context.Context, companyID string, platform domain.Platform) error {
	if _, err := v.collection.DeleteOne(ctx, bson.M{"company_id": companyID, "platform": platform}); err != nil {
		return fmt.Errorf("failed to delete secret: %w", err)
	}
	return nil
}

var _ ports.SecretVault = (*MongoSecretVault)(nil)
