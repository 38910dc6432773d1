package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"creatorhub/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

type telemetryRepo struct {
	pool *pgxpool.Pool
}

// NewTelemetryRepo creates a Postgres-backed TelemetryRepository.
func NewTelemetryRepo(pool *pgxpool.Pool) TelemetryRepository {
	return &telemetryRepo{pool: pool}
}

func (r *telemetryRepo) SaveTrainingData(ctx context.Context, d *model.TrainingData) error {
	metrics, err := json.Marshal(d.EngagementMetrics)
	if err != nil {
		return fmt.Errorf("marshal engagement metrics: %w", err)
	}
	const q = `
		INSERT INTO training_data (id, user_id, source, url, text_content, media_url, hashtags, hooks,
		                           engagement_metrics, category, ai_labels, user_generated, created_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = r.pool.Exec(ctx, q, d.ID, d.UserID, d.Source, d.URL, d.TextContent, d.MediaURL,
		nonNil(d.Hashtags), nonNil(d.Hooks), string(metrics), d.Category, nonNil(d.AILabels), d.UserGenerated, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting training data: %w", err)
	}
	return nil
}

func (r *telemetryRepo) SaveInteraction(ctx context.Context, i *model.UserInteraction) error {
	details, err := json.Marshal(i.Details)
	if err != nil {
		return fmt.Errorf("marshal interaction details: %w", err)
	}
	meta, err := json.Marshal(i.Metadata)
	if err != nil {
		return fmt.Errorf("marshal interaction metadata: %w", err)
	}
	const q = `
		INSERT INTO user_interactions (id, user_id, action_type, query, details, metadata, "timestamp")
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := r.pool.Exec(ctx, q, i.ID, i.UserID, string(i.ActionType), i.Query, string(details), string(meta), i.Timestamp); err != nil {
		return fmt.Errorf("inserting user interaction: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
