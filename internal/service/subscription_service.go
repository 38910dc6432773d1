package service

import (
	"context"

	"github.com/rs/zerolog"

	"creatorhub/internal/model"
	"creatorhub/internal/repository"
)

// SubscriptionService defines business logic methods for subscriptions.
type SubscriptionService interface {
	// ApplyPlanGrant applies a purchase once per event id and reports whether it changed anything.
	ApplyPlanGrant(ctx context.Context, grant model.PlanGrant) (bool, error)
}

type subscriptionService struct {
	repo   repository.SubscriptionRepository
	logger zerolog.Logger
}

// NewSubscriptionService creates a new SubscriptionService with a scoped logger.
func NewSubscriptionService(repo repository.SubscriptionRepository, logger zerolog.Logger) SubscriptionService {
	return &subscriptionService{
		repo:   repo,
		logger: logger.With().Str("service", "SubscriptionService").Logger(),
	}
}

func (s *subscriptionService) ApplyPlanGrant(ctx context.Context, grant model.PlanGrant) (bool, error) {
	applied, err := s.repo.ApplyPlanGrant(ctx, grant)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", grant.UserID).Str("event_id", grant.EventID).Msg("Failed to apply plan grant")
		return false, persistenceError(err)
	}
	if !applied {
		s.logger.Info().Str("user_id", grant.UserID).Str("event_id", grant.EventID).Msg("Plan grant already applied, skipping")
		return false, nil
	}
	s.logger.Info().
		Str("user_id", grant.UserID).
		Str("event_id", grant.EventID).
		Str("plan", string(grant.Plan)).
		Int("credits", grant.Credits).
		Msg("Plan grant applied")
	return true, nil
}
