package audit

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig configures the audit trail's MongoDB connection.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoStore is a Store backed by a single MongoDB collection, one
// document per completed transaction. EBICS order data itself is never
// persisted here, only the metadata of what happened: order type,
// correlation ID, return codes, and timing.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.Database == "" {
		cfg.Database = "ebics"
	}
	if cfg.Collection == "" {
		cfg.Collection = "transactions"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("audit: connecting to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("audit: pinging MongoDB: %w", err)
	}

	collection := client.Database(cfg.Database).Collection(cfg.Collection)
	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "transactionid", Value: 1}},
	}
	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return nil, fmt.Errorf("audit: creating index: %w", err)
	}

	return &MongoStore{client: client, collection: collection}, nil
}

// Record inserts entry as a new document.
func (s *MongoStore) Record(ctx context.Context, entry Entry) error {
	_, err := s.collection.InsertOne(ctx, entry)
	if err != nil {
		return fmt.Errorf("audit: recording transaction %s: %w", entry.TransactionID, err)
	}
	return nil
}

// Close disconnects the underlying MongoDB client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
