package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"creatorhub/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type userRepo struct {
	pool *pgxpool.Pool
}

// NewUserRepo creates a Postgres-backed UserRepository.
func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepo{pool: pool}
}

func (r *userRepo) CreateUser(ctx context.Context, u *model.User) error {
	const q = `
		INSERT INTO users (id, email, password_hash, credits, subscription, subscription_start_date,
		                   subscription_end_date, total_scrapes, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, q, u.ID, u.Email, u.PasswordHash, u.Credits, string(u.Subscription),
		u.SubscriptionStart, u.SubscriptionEnd, u.TotalScrapes, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("inserting user %s: %w", u.ID, err)
	}
	return nil
}

func (r *userRepo) EnsureUser(ctx context.Context, id, email string) (*model.User, error) {
	now := time.Now().UTC()
	u := model.NewUser(id, email, now)
	const q = `
		INSERT INTO users (id, email, credits, subscription, subscription_start_date, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $5, $5)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, q, u.ID, u.Email, u.Credits, string(u.Subscription), now); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("ensuring user %s: %w", id, err)
	}
	return r.GetUserByID(ctx, id)
}

func (r *userRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	const q = `
		SELECT id, COALESCE(email, ''), password_hash, credits, subscription, subscription_start_date,
		       subscription_end_date, total_scrapes, created_at, updated_at
		FROM users WHERE id = $1
	`
	var u model.User
	var plan string
	err := r.pool.QueryRow(ctx, q, id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Credits, &plan,
		&u.SubscriptionStart, &u.SubscriptionEnd, &u.TotalScrapes, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching user %s: %w", id, err)
	}
	u.Subscription = model.Plan(plan)

	if u.Thumbnails, err = collect(ctx, r.pool,
		`SELECT id, url, object_key, prompt, model_id, created_at FROM thumbnails WHERE user_id = $1 ORDER BY created_at, id`,
		id, func(row pgx.CollectableRow) (model.Thumbnail, error) {
			var t model.Thumbnail
			err := row.Scan(&t.ID, &t.URL, &t.ObjectKey, &t.Prompt, &t.ModelID, &t.CreatedAt)
			return t, err
		}); err != nil {
		return nil, fmt.Errorf("fetching thumbnails for user %s: %w", id, err)
	}
	if u.Hashtags, err = collect(ctx, r.pool,
		`SELECT id, tag, created_at FROM hashtags WHERE user_id = $1 ORDER BY created_at, id`,
		id, func(row pgx.CollectableRow) (model.Hashtag, error) {
			var h model.Hashtag
			err := row.Scan(&h.ID, &h.Tag, &h.CreatedAt)
			return h, err
		}); err != nil {
		return nil, fmt.Errorf("fetching hashtags for user %s: %w", id, err)
	}
	if u.TemplateUsage, err = collect(ctx, r.pool,
		`SELECT id, template_id, content, created_at FROM template_usage WHERE user_id = $1 ORDER BY created_at, id`,
		id, scanTemplateUsage); err != nil {
		return nil, fmt.Errorf("fetching template usage for user %s: %w", id, err)
	}
	if u.ScrapeHistory, err = collect(ctx, r.pool,
		`SELECT id, task_type, content, created_at FROM scrape_history WHERE user_id = $1 ORDER BY created_at, id`,
		id, func(row pgx.CollectableRow) (model.ScrapeRecord, error) {
			var s model.ScrapeRecord
			err := row.Scan(&s.ID, &s.TaskType, &s.Content, &s.CreatedAt)
			return s, err
		}); err != nil {
		return nil, fmt.Errorf("fetching scrape history for user %s: %w", id, err)
	}
	if u.WebhookData, err = collect(ctx, r.pool,
		`SELECT event_id, payment_reference, status, media_references, received_at FROM webhook_events WHERE user_id = $1 ORDER BY received_at`,
		id, func(row pgx.CollectableRow) (model.WebhookRecord, error) {
			var w model.WebhookRecord
			err := row.Scan(&w.EventID, &w.PaymentReference, &w.Status, &w.MediaReferences, &w.ReceivedAt)
			return w, err
		}); err != nil {
		return nil, fmt.Errorf("fetching webhook data for user %s: %w", id, err)
	}
	return &u, nil
}

func scanTemplateUsage(row pgx.CollectableRow) (model.TemplateUsage, error) {
	var t model.TemplateUsage
	err := row.Scan(&t.ID, &t.TemplateID, &t.Content, &t.CreatedAt)
	return t, err
}

// collect runs a per-user query and returns a non-nil slice.
func collect[T any](ctx context.Context, pool *pgxpool.Pool, q, userID string, fn pgx.RowToFunc[T]) ([]T, error) {
	rows, err := pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	out, err := pgx.CollectRows(rows, fn)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
