// Package mongostore implements the repository interfaces on MongoDB.
//
// A user is one document with its usage history embedded as arrays, so a debit and the usage it
// pays for land in a single conditional FindOneAndUpdate.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"creatorhub/internal/repository"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection names
const (
	ColUsers            = "users"
	ColWebhookEvents    = "webhook_events"
	ColTrainingData     = "training_data"
	ColUserInteractions = "user_interactions"
)

// Store is the MongoDB driver.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger zerolog.Logger
}

// Open connects, pings and ensures indexes, then returns the repository.Store for this driver.
func Open(ctx context.Context, uri, dbName string, logger zerolog.Logger) (*repository.Store, error) {
	s, err := New(ctx, uri, dbName, logger)
	if err != nil {
		return nil, err
	}
	return repository.NewStore(s, s, s, s, s.Close), nil
}

// New creates the MongoDB store.
func New(ctx context.Context, uri, dbName string, logger zerolog.Logger) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect failed: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongostore: ping failed: %w", err)
	}

	s := &Store{
		client: client,
		db:     client.Database(dbName),
		logger: logger.With().Str("store", "mongo").Logger(),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("ensure indexes failed")
	}
	return s, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Drop removes the database. Used by integration tests.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	// Users created from tokens without an email claim have an empty email; keep them out of
	// the unique index.
	emailIdx := mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.D{
			{Key: "email", Value: bson.D{{Key: "$type", Value: "string"}, {Key: "$gt", Value: ""}}},
		}),
	}
	if _, err := s.col(ColUsers).Indexes().CreateOne(ctx, emailIdx); err != nil {
		return fmt.Errorf("create index on %s: %w", ColUsers, err)
	}

	others := []struct {
		col  string
		keys bson.D
	}{
		{ColWebhookEvents, bson.D{{Key: "user_id", Value: 1}}},
		{ColTrainingData, bson.D{{Key: "source", Value: 1}, {Key: "created_at", Value: -1}}},
		{ColUserInteractions, bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}}},
	}
	for _, i := range others {
		if _, err := s.col(i.col).Indexes().CreateOne(ctx, mongo.IndexModel{Keys: i.keys}); err != nil {
			return fmt.Errorf("create index on %s: %w", i.col, err)
		}
	}
	return nil
}

// wrapError maps driver errors onto repository errors.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicate
	}
	return err
}

func (s *Store) userExists(ctx context.Context, id string) (bool, error) {
	n, err := s.col(ColUsers).CountDocuments(ctx, bson.D{{Key: "_id", Value: id}}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("checking user %s: %w", id, err)
	}
	return n > 0, nil
}
