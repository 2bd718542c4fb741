package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(uri string, dbName string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return client.Database(dbName), nil
}

// EnsureIndexes creates the indexes the application relies on. Safe to call
// on every startup; Mongo treats an existing identical index as a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create email index: %w", err)
	}

	for _, keys := range []bson.D{
		{{Key: "reported_by", Value: 1}},
		{{Key: "status", Value: 1}},
		{{Key: "created_at", Value: -1}},
	} {
		if _, err := db.Collection("incidents").Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys}); err != nil {
			return fmt.Errorf("failed to create incident index: %w", err)
		}
	}

	_, err = db.Collection("archived_incidents").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "reported_by", Value: 1}, {Key: "deleted_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create archive index: %w", err)
	}
	return nil
}
