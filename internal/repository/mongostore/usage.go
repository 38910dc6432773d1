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

// DebitCredits matches only when credits >= cost, so the decrement and the $push either both
// happen or neither does.
func (s *Store) DebitCredits(ctx context.Context, userID string, cost int, usage model.Usage) (int, error) {
	if cost < 0 {
		return 0, fmt.Errorf("negative cost %d", cost)
	}
	filter := bson.D{
		{Key: "_id", Value: userID},
		{Key: "credits", Value: bson.D{{Key: "$gte", Value: cost}}},
	}
	update := bson.D{
		{Key: "$inc", Value: bson.D{
			{Key: "credits", Value: -cost},
			{Key: "total_scrapes", Value: repository.ScrapeCount(usage)},
		}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
	}
	if push := pushUsage(usage); len(push) > 0 {
		update = append(update, bson.E{Key: "$push", Value: push})
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.D{{Key: "credits", Value: 1}})

	var res struct {
		Credits int `bson:"credits"`
	}
	err := s.col(ColUsers).FindOneAndUpdate(ctx, filter, update, opts).Decode(&res)
	if err == nil {
		return res.Credits, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, fmt.Errorf("debiting %d credits from user %s: %w", cost, userID, err)
	}
	exists, err := s.userExists(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, repository.ErrNotFound
	}
	return 0, repository.ErrInsufficientCredits
}

func pushUsage(u model.Usage) bson.D {
	var push bson.D
	add := func(field string, items any, n int) {
		if n > 0 {
			push = append(push, bson.E{Key: field, Value: bson.D{{Key: "$each", Value: items}}})
		}
	}
	add("thumbnails", u.Thumbnails, len(u.Thumbnails))
	add("hashtags", u.Hashtags, len(u.Hashtags))
	add("template_usage", u.TemplateUsage, len(u.TemplateUsage))
	add("scrape_history", u.ScrapeHistory, len(u.ScrapeHistory))
	return push
}

func (s *Store) RecentTemplateUsage(ctx context.Context, userID string, limit int) ([]model.TemplateUsage, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: userID}}}},
		{{Key: "$unwind", Value: "$template_usage"}},
		{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: "$template_usage"}}}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
	}
	cursor, err := s.col(ColUsers).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("listing template usage for user %s: %w", userID, err)
	}
	out := []model.TemplateUsage{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decoding template usage for user %s: %w", userID, err)
	}
	return out, nil
}

func (s *Store) DeleteTemplateUsage(ctx context.Context, userID, usageID string) error {
	filter := bson.D{
		{Key: "_id", Value: userID},
		{Key: "template_usage._id", Value: usageID},
	}
	update := bson.D{
		{Key: "$pull", Value: bson.D{{Key: "template_usage", Value: bson.D{{Key: "_id", Value: usageID}}}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
	}
	res, err := s.col(ColUsers).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("deleting template usage %s: %w", usageID, err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
