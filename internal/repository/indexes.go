package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"devconnect/internal/database"
)

// EnsureIndexes creates the indexes the repositories rely on. Safe to call on
// every startup; Mongo treats re-creation of an identical index as a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	// Unique email backs the duplicate-identity guard under concurrency.
	_, err := db.Collection(database.UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users email index: %w", err)
	}

	// Newest-first feed queries sort on created_at.
	_, err = db.Collection(database.PostsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create posts created_at index: %w", err)
	}

	return nil
}
