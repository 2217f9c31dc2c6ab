// Package mongostore persists mined news events in a MongoDB collection
// with full-replace semantics: each ingest clears the collection before
// inserting the new batch.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ternarybob/searadar/internal/common"
	"github.com/ternarybob/searadar/internal/models"
)

const connectTimeout = 10 * time.Second

// Store wraps the events collection.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     arbor.ILogger
}

// Connect opens a client against the configured URI and pings the server.
func Connect(ctx context.Context, config *common.MongoConfig, logger arbor.ILogger) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return &Store{
		client:     client,
		collection: client.Database(config.Database).Collection(config.Collection),
		logger:     logger,
	}, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// ReplaceEvents clears the collection and bulk-inserts the given batch.
// An insert failure aborts the whole batch; there is no partial recovery.
func (s *Store) ReplaceEvents(ctx context.Context, events []models.NewsEvent) (int, error) {
	if _, err := s.collection.DeleteMany(ctx, bson.D{}); err != nil {
		return 0, fmt.Errorf("failed to clear events collection: %w", err)
	}

	if len(events) == 0 {
		return 0, nil
	}

	docs := make([]interface{}, len(events))
	for i, e := range events {
		docs[i] = e
	}
	result, err := s.collection.InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("failed to insert events: %w", err)
	}

	s.logger.Debug().
		Int("inserted", len(result.InsertedIDs)).
		Msg("Events collection replaced")

	return len(result.InsertedIDs), nil
}

// LoadEvents reads the whole collection back.
func (s *Store) LoadEvents(ctx context.Context) ([]models.NewsEvent, error) {
	cursor, err := s.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to query events collection: %w", err)
	}
	defer cursor.Close(ctx)

	var events []models.NewsEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	return events, nil
}
