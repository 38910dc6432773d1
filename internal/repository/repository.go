package repository

import (
	"context"
	"errors"

	"creatorhub/internal/model"
)

var (
	// ErrNotFound is returned when the requested user or record does not exist.
	ErrNotFound = errors.New("not_found")
	// ErrDuplicate is returned when a unique key (user id or email) is already taken.
	ErrDuplicate = errors.New("duplicate")
	// ErrInsufficientCredits is returned by DebitCredits when the balance is below the cost.
	// The store is left untouched.
	ErrInsufficientCredits = errors.New("insufficient_credits")
)

// UserRepository reads and creates user records.
type UserRepository interface {
	CreateUser(ctx context.Context, u *model.User) error
	// GetUserByID returns ErrNotFound when no such user exists.
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// EnsureUser returns the user, creating it with default credits on first sight.
	EnsureUser(ctx context.Context, id, email string) (*model.User, error)
}

// UsageRepository owns the credit balance and the usage history appended with each debit.
type UsageRepository interface {
	// DebitCredits atomically subtracts cost when credits >= cost and appends usage in the
	// same write. It returns the new balance. A cost of 0 appends usage without touching credits.
	DebitCredits(ctx context.Context, userID string, cost int, usage model.Usage) (int, error)
	// RecentTemplateUsage returns up to limit template usage records, newest first.
	RecentTemplateUsage(ctx context.Context, userID string, limit int) ([]model.TemplateUsage, error)
	// DeleteTemplateUsage removes one template usage record. ErrNotFound if absent.
	DeleteTemplateUsage(ctx context.Context, userID, usageID string) error
}

// SubscriptionRepository applies purchased plans.
type SubscriptionRepository interface {
	// ApplyPlanGrant sets the user's credits and plan from a completed purchase, at most once
	// per grant.EventID. It reports false with no mutation when the event was already applied.
	ApplyPlanGrant(ctx context.Context, grant model.PlanGrant) (bool, error)
}

// TelemetryRepository stores write-only analytics documents.
type TelemetryRepository interface {
	SaveTrainingData(ctx context.Context, d *model.TrainingData) error
	SaveInteraction(ctx context.Context, i *model.UserInteraction) error
}

// Store bundles the repositories of one storage driver.
type Store struct {
	Users         UserRepository
	Usage         UsageRepository
	Subscriptions SubscriptionRepository
	Telemetry     TelemetryRepository
	closeFn       func() error
}

// NewStore assembles a Store. closeFn may be nil.
func NewStore(users UserRepository, usage UsageRepository, subs SubscriptionRepository, telemetry TelemetryRepository, closeFn func() error) *Store {
	return &Store{Users: users, Usage: usage, Subscriptions: subs, Telemetry: telemetry, closeFn: closeFn}
}

// Close releases the driver's connections.
func (s *Store) Close() error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}

// ScrapeCount is the number of scrape records in a usage batch, added to the user's total.
func ScrapeCount(u model.Usage) int {
	return len(u.ScrapeHistory)
}
