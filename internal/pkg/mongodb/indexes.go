package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes for all collections. Called once at startup.
func EnsureIndexes(db *mongo.Database) error {
	ctx := context.Background()

	// conversations
	convColl := db.Collection("conversations")
	convIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{bson.E{Key: "store_id", Value: 1}, bson.E{Key: "last_message_at", Value: -1}},
			Options: options.Index().SetName("idx_store_last_message"),
		},
		{
			Keys:    bson.D{bson.E{Key: "store_id", Value: 1}, bson.E{Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_store_status"),
		},
		{
			Keys:    bson.D{bson.E{Key: "customer_email", Value: 1}},
			Options: options.Index().SetName("idx_customer_email").SetSparse(true),
		},
		{
			Keys:    bson.D{bson.E{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_created"),
		},
	}
	if err := createIndexes(ctx, convColl, convIndexes); err != nil {
		return err
	}

	// stores
	storeColl := db.Collection("stores")
	storeIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{bson.E{Key: "shop", Value: 1}},
			Options: options.Index().SetName("idx_shop").SetUnique(true),
		},
		{
			Keys:    bson.D{bson.E{Key: "is_active", Value: 1}},
			Options: options.Index().SetName("idx_active"),
		},
	}
	return createIndexes(ctx, storeColl, storeIndexes)
}

func createIndexes(ctx context.Context, coll *mongo.Collection, indexes []mongo.IndexModel) error {
	if len(indexes) == 0 {
		return nil
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
