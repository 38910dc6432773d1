package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"creatorhub/internal/model"
	"creatorhub/internal/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	if _, err := s.col(ColUsers).InsertOne(ctx, u); err != nil {
		return wrapError(err)
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := s.col(ColUsers).FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&u); err != nil {
		return nil, wrapError(err)
	}
	return &u, nil
}

// EnsureUser upserts with $setOnInsert so an existing user is returned untouched.
func (s *Store) EnsureUser(ctx context.Context, id, email string) (*model.User, error) {
	u := model.NewUser(id, email, time.Now().UTC())
	update := bson.D{{Key: "$setOnInsert", Value: bson.D{
		{Key: "email", Value: u.Email},
		{Key: "credits", Value: u.Credits},
		{Key: "subscription", Value: u.Subscription},
		{Key: "subscription_start_date", Value: u.SubscriptionStart},
		{Key: "thumbnails", Value: u.Thumbnails},
		{Key: "hashtags", Value: u.Hashtags},
		{Key: "template_usage", Value: u.TemplateUsage},
		{Key: "scrape_history", Value: u.ScrapeHistory},
		{Key: "total_scrapes", Value: 0},
		{Key: "webhook_data", Value: u.WebhookData},
		{Key: "created_at", Value: u.CreatedAt},
		{Key: "updated_at", Value: u.UpdatedAt},
	}}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var out model.User
	err := s.col(ColUsers).FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, update, opts).Decode(&out)
	if err == nil {
		return &out, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("ensuring user %s: %w", id, err)
	}
	// Either a concurrent upsert won on _id, or the email belongs to another user.
	existing, getErr := s.GetUserByID(ctx, id)
	if errors.Is(getErr, repository.ErrNotFound) {
		return nil, repository.ErrDuplicate
	}
	return existing, getErr
}
