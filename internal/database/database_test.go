package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestOpenProductsDisconnectsOnIndexFailure(t *testing.T) {
	client, err := mongo.Connect(context.Background(), options.Client().
		ApplyURI("mongodb://127.0.0.1:1").
		SetServerSelectionTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := OpenProducts(ctx, client, "catalog", time.Second); err == nil {
		t.Fatal("expected index creation to fail")
	}

	if err := client.Disconnect(context.Background()); !errors.Is(err, mongo.ErrClientDisconnected) {
		t.Fatalf("client should already be disconnected, got %v", err)
	}
}
