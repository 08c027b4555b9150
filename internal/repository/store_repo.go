package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shopmate/internal/model"
)

// StoreRepo reads and updates merchant (tenant) records.
type StoreRepo struct {
	collection *mongo.Collection
}

// NewStoreRepo creates the repository.
func NewStoreRepo(db *mongo.Database) *StoreRepo {
	return &StoreRepo{
		collection: db.Collection("stores"),
	}
}

// FindByDomain loads an active store by its shop domain.
func (r *StoreRepo) FindByDomain(ctx context.Context, shop string) (*model.Store, error) {
	var store model.Store
	err := r.collection.FindOne(ctx, bson.M{"shop": shop, "is_active": true}).Decode(&store)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &store, nil
}

// Upsert inserts or replaces a store keyed by its shop domain. Used by the
// install flow and provisioning tooling, not by the chat path.
func (r *StoreRepo) Upsert(ctx context.Context, store *model.Store) error {
	now := time.Now()
	store.UpdatedAt = now
	if store.CreatedAt.IsZero() {
		store.CreatedAt = now
	}

	update := bson.M{
		"$set": bson.M{
			"store_name":   store.StoreName,
			"access_token": store.AccessToken,
			"is_active":    store.IsActive,
			"settings":     store.Settings,
			"updated_at":   store.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"shop":               store.Shop,
			"conversation_count": store.ConversationCount,
			"conversation_limit": store.ConversationLimit,
			"created_at":         store.CreatedAt,
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, bson.M{"shop": store.Shop}, update, opts)
	return err
}

// UpdateSettings replaces the settings document.
func (r *StoreRepo) UpdateSettings(ctx context.Context, id primitive.ObjectID, settings model.StoreSettings) error {
	update := bson.M{
		"$set": bson.M{
			"settings":   settings,
			"updated_at": time.Now(),
		},
	}
	result, err := r.collection.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementConversationCount bumps the billing usage counter atomically.
// The counter itself is owned by billing; this is the only write this
// service performs on it.
func (r *StoreRepo) IncrementConversationCount(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{
		"$inc": bson.M{"conversation_count": 1},
		"$set": bson.M{"updated_at": time.Now()},
	}
	_, err := r.collection.UpdateByID(ctx, id, update)
	return err
}
