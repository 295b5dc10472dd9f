package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ProductsCollection = "products"

// Connect opens a Mongo client and pings the primary before returning it.
func Connect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("database.Connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("database.Connect: ping: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the indexes the sweep and the catalog filter on.
func EnsureIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "expiryDate", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("database.EnsureIndexes: %w", err)
	}
	return nil
}

// OpenProducts returns the products collection of dbName with its indexes in
// place. The client is disconnected when the indexes cannot be created.
func OpenProducts(ctx context.Context, client *mongo.Client, dbName string, timeout time.Duration) (*mongo.Collection, error) {
	collection := client.Database(dbName).Collection(ProductsCollection)
	if err := EnsureIndexes(ctx, collection); err != nil {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}
	return collection, nil
}
