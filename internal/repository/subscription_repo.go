package repository

import (
	"context"
	"fmt"

	"creatorhub/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepo creates a Postgres-backed SubscriptionRepository.
func NewSubscriptionRepo(pool *pgxpool.Pool) SubscriptionRepository {
	return &subscriptionRepo{pool: pool}
}

// ApplyPlanGrant records the event in webhook_events and updates the user in one transaction.
// A conflicting event id means the grant was already applied.
func (r *subscriptionRepo) ApplyPlanGrant(ctx context.Context, g model.PlanGrant) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("starting transaction for plan grant: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, g.UserID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking user %s: %w", g.UserID, err)
	}
	if !exists {
		return false, ErrNotFound
	}

	rec := g.WebhookRecord()
	const ledgerQ = `
		INSERT INTO webhook_events (event_id, user_id, payment_reference, status, media_references, received_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id) DO NOTHING
	`
	tag, err := tx.Exec(ctx, ledgerQ, rec.EventID, g.UserID, rec.PaymentReference, rec.Status, rec.MediaReferences, rec.ReceivedAt)
	if err != nil {
		return false, fmt.Errorf("recording webhook event %s: %w", g.EventID, err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	const grantQ = `
		UPDATE users
		SET credits = $2, subscription = $3, subscription_start_date = $4, subscription_end_date = $5, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, grantQ, g.UserID, g.Credits, string(g.Plan), g.StartsAt, g.EndsAt); err != nil {
		return false, fmt.Errorf("applying plan %s to user %s: %w", g.Plan, g.UserID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("committing plan grant %s: %w", g.EventID, err)
	}
	return true, nil
}
