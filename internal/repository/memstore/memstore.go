// Package memstore is an in-process implementation of the repository interfaces for local
// development and tests. All state lives behind one mutex, so every operation is atomic.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"creatorhub/internal/model"
	"creatorhub/internal/repository"
)

// Store holds users, the processed webhook ledger and telemetry in memory.
type Store struct {
	mu           sync.Mutex
	users        map[string]*model.User
	emails       map[string]string
	events       map[string]struct{}
	training     []model.TrainingData
	interactions []model.UserInteraction
	now          func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		users:  make(map[string]*model.User),
		emails: make(map[string]string),
		events: make(map[string]struct{}),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Open returns a repository.Store backed by a fresh in-memory Store.
func Open() *repository.Store {
	s := New()
	return repository.NewStore(s, s, s, s, nil)
}

func (s *Store) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(u)
}

func (s *Store) insertLocked(u *model.User) error {
	if _, ok := s.users[u.ID]; ok {
		return repository.ErrDuplicate
	}
	if u.Email != "" {
		if _, ok := s.emails[u.Email]; ok {
			return repository.ErrDuplicate
		}
		s.emails[u.Email] = u.ID
	}
	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) EnsureUser(_ context.Context, id, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return cloneUser(u), nil
	}
	u := model.NewUser(id, email, s.now())
	if err := s.insertLocked(u); err != nil {
		return nil, err
	}
	return cloneUser(u), nil
}

func (s *Store) DebitCredits(_ context.Context, userID string, cost int, usage model.Usage) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	if cost < 0 || u.Credits < cost {
		return 0, repository.ErrInsufficientCredits
	}
	u.Credits -= cost
	u.TotalScrapes += repository.ScrapeCount(usage)
	u.Thumbnails = append(u.Thumbnails, usage.Thumbnails...)
	u.Hashtags = append(u.Hashtags, usage.Hashtags...)
	u.TemplateUsage = append(u.TemplateUsage, usage.TemplateUsage...)
	u.ScrapeHistory = append(u.ScrapeHistory, usage.ScrapeHistory...)
	u.UpdatedAt = s.now()
	return u.Credits, nil
}

func (s *Store) RecentTemplateUsage(_ context.Context, userID string, limit int) ([]model.TemplateUsage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return []model.TemplateUsage{}, nil
	}
	out := make([]model.TemplateUsage, len(u.TemplateUsage))
	copy(out, u.TemplateUsage)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) DeleteTemplateUsage(_ context.Context, userID, usageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	for i, t := range u.TemplateUsage {
		if t.ID == usageID {
			u.TemplateUsage = append(u.TemplateUsage[:i], u.TemplateUsage[i+1:]...)
			u.UpdatedAt = s.now()
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *Store) ApplyPlanGrant(ctx context.Context, g model.PlanGrant) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[g.UserID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if _, seen := s.events[g.EventID]; seen {
		return false, nil
	}
	s.events[g.EventID] = struct{}{}
	end := g.EndsAt
	u.Credits = g.Credits
	u.Subscription = g.Plan
	u.SubscriptionStart = g.StartsAt
	u.SubscriptionEnd = &end
	u.WebhookData = append(u.WebhookData, g.WebhookRecord())
	u.UpdatedAt = s.now()
	return true, nil
}

func (s *Store) SaveTrainingData(_ context.Context, d *model.TrainingData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.training = append(s.training, *d)
	return nil
}

func (s *Store) SaveInteraction(_ context.Context, i *model.UserInteraction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interactions = append(s.interactions, *i)
	return nil
}

// TrainingData returns a copy of the stored training documents.
func (s *Store) TrainingData() []model.TrainingData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.TrainingData(nil), s.training...)
}

// Interactions returns a copy of the stored interaction log.
func (s *Store) Interactions() []model.UserInteraction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.UserInteraction(nil), s.interactions...)
}

func cloneUser(u *model.User) *model.User {
	c := *u
	c.Thumbnails = append([]model.Thumbnail{}, u.Thumbnails...)
	c.Hashtags = append([]model.Hashtag{}, u.Hashtags...)
	c.TemplateUsage = append([]model.TemplateUsage{}, u.TemplateUsage...)
	c.ScrapeHistory = append([]model.ScrapeRecord{}, u.ScrapeHistory...)
	c.WebhookData = append([]model.WebhookRecord{}, u.WebhookData...)
	if u.SubscriptionEnd != nil {
		end := *u.SubscriptionEnd
		c.SubscriptionEnd = &end
	}
	return &c
}
