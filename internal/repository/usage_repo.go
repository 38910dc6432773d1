package repository

import (
	"context"
	"errors"
	"fmt"

	"creatorhub/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type usageRepo struct {
	pool *pgxpool.Pool
}

// NewUsageRepo creates a Postgres-backed UsageRepository.
func NewUsageRepo(pool *pgxpool.Pool) UsageRepository {
	return &usageRepo{pool: pool}
}

// DebitCredits runs the conditional decrement and the usage inserts in one transaction.
// The WHERE credits >= cost guard makes concurrent debits unable to overspend.
func (r *usageRepo) DebitCredits(ctx context.Context, userID string, cost int, usage model.Usage) (int, error) {
	if cost < 0 {
		return 0, fmt.Errorf("negative cost %d", cost)
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("starting transaction for debit: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const debitQ = `
		UPDATE users
		SET credits = credits - $2, total_scrapes = total_scrapes + $3, updated_at = NOW()
		WHERE id = $1 AND credits >= $2
		RETURNING credits
	`
	var balance int
	if err := tx.QueryRow(ctx, debitQ, userID, cost, ScrapeCount(usage)).Scan(&balance); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("debiting %d credits from user %s: %w", cost, userID, err)
		}
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
			return 0, fmt.Errorf("checking user %s: %w", userID, err)
		}
		if !exists {
			return 0, ErrNotFound
		}
		return 0, ErrInsufficientCredits
	}

	batch := &pgx.Batch{}
	for _, t := range usage.Thumbnails {
		batch.Queue(`INSERT INTO thumbnails (id, user_id, url, object_key, prompt, model_id, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			t.ID, userID, t.URL, t.ObjectKey, t.Prompt, t.ModelID, t.CreatedAt)
	}
	for _, h := range usage.Hashtags {
		batch.Queue(`INSERT INTO hashtags (id, user_id, tag, created_at) VALUES ($1, $2, $3, $4)`,
			h.ID, userID, h.Tag, h.CreatedAt)
	}
	for _, t := range usage.TemplateUsage {
		batch.Queue(`INSERT INTO template_usage (id, user_id, template_id, content, created_at) VALUES ($1, $2, $3, $4, $5)`,
			t.ID, userID, t.TemplateID, t.Content, t.CreatedAt)
	}
	for _, s := range usage.ScrapeHistory {
		batch.Queue(`INSERT INTO scrape_history (id, user_id, task_type, content, created_at) VALUES ($1, $2, $3, $4, $5)`,
			s.ID, userID, s.TaskType, s.Content, s.CreatedAt)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return 0, fmt.Errorf("recording usage for user %s: %w", userID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing debit for user %s: %w", userID, err)
	}
	return balance, nil
}

func (r *usageRepo) RecentTemplateUsage(ctx context.Context, userID string, limit int) ([]model.TemplateUsage, error) {
	const q = `
		SELECT id, template_id, content, created_at
		FROM template_usage
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing template usage for user %s: %w", userID, err)
	}
	out, err := pgx.CollectRows(rows, scanTemplateUsage)
	if err != nil {
		return nil, fmt.Errorf("scanning template usage for user %s: %w", userID, err)
	}
	if out == nil {
		out = []model.TemplateUsage{}
	}
	return out, nil
}

func (r *usageRepo) DeleteTemplateUsage(ctx context.Context, userID, usageID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM template_usage WHERE id = $1 AND user_id = $2`, usageID, userID)
	if err != nil {
		return fmt.Errorf("deleting template usage %s: %w", usageID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
