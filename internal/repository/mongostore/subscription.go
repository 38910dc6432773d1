package mongostore

import (
	"context"
	"fmt"
	"time"

	"creatorhub/internal/model"
	"creatorhub/internal/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type webhookEvent struct {
	ID         string     `bson:"_id"`
	UserID     string     `bson:"user_id"`
	Plan       model.Plan `bson:"plan"`
	Credits    int        `bson:"credits"`
	ReceivedAt time.Time  `bson:"received_at"`
}

// ApplyPlanGrant sets the plan in one conditional update that only matches while the event id is
// absent from the user's webhook_data, so a grant and its dedup record are written together.
// The webhook_events copy is an audit trail written afterwards and never decides idempotency.
func (s *Store) ApplyPlanGrant(ctx context.Context, g model.PlanGrant) (bool, error) {
	filter := bson.D{
		{Key: "_id", Value: g.UserID},
		{Key: "webhook_data.event_id", Value: bson.D{{Key: "$ne", Value: g.EventID}}},
	}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "credits", Value: g.Credits},
			{Key: "subscription", Value: g.Plan},
			{Key: "subscription_start_date", Value: g.StartsAt},
			{Key: "subscription_end_date", Value: g.EndsAt},
			{Key: "updated_at", Value: time.Now().UTC()},
		}},
		{Key: "$push", Value: bson.D{{Key: "webhook_data", Value: g.WebhookRecord()}}},
	}
	res, err := s.col(ColUsers).UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("applying plan %s to user %s: %w", g.Plan, g.UserID, err)
	}
	if res.MatchedCount == 0 {
		exists, err := s.userExists(ctx, g.UserID)
		if err != nil {
			return false, err
		}
		if !exists {
			return false, repository.ErrNotFound
		}
		return false, nil
	}

	s.recordWebhookEvent(context.WithoutCancel(ctx), g)
	return true, nil
}

func (s *Store) recordWebhookEvent(ctx context.Context, g model.PlanGrant) {
	_, err := s.col(ColWebhookEvents).InsertOne(ctx, webhookEvent{
		ID:         g.EventID,
		UserID:     g.UserID,
		Plan:       g.Plan,
		Credits:    g.Credits,
		ReceivedAt: g.StartsAt,
	})
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		s.logger.Warn().Err(err).Str("event_id", g.EventID).Msg("failed to record webhook event")
	}
}
