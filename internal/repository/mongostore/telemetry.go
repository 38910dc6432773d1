package mongostore

import (
	"context"
	"fmt"

	"creatorhub/internal/model"
)

func (s *Store) SaveTrainingData(ctx context.Context, d *model.TrainingData) error {
	if _, err := s.col(ColTrainingData).InsertOne(ctx, d); err != nil {
		return fmt.Errorf("inserting training data: %w", wrapError(err))
	}
	return nil
}

func (s *Store) SaveInteraction(ctx context.Context, i *model.UserInteraction) error {
	if _, err := s.col(ColUserInteractions).InsertOne(ctx, i); err != nil {
		return fmt.Errorf("inserting user interaction: %w", wrapError(err))
	}
	return nil
}
