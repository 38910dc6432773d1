// Package repotest is the behavioral contract every storage driver must satisfy.
package repotest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"creatorhub/internal/model"
	"creatorhub/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run executes the contract against the store returned by open.
func Run(t *testing.T, open func(t *testing.T) *repository.Store) {
	t.Run("EnsureUser", func(t *testing.T) { testEnsureUser(t, open(t)) })
	t.Run("CreateUserDuplicate", func(t *testing.T) { testCreateUserDuplicate(t, open(t)) })
	t.Run("DebitCredits", func(t *testing.T) { testDebitCredits(t, open(t)) })
	t.Run("DebitInsufficient", func(t *testing.T) { testDebitInsufficient(t, open(t)) })
	t.Run("DebitConcurrent", func(t *testing.T) { testDebitConcurrent(t, open(t)) })
	t.Run("TemplateUsage", func(t *testing.T) { testTemplateUsage(t, open(t)) })
	t.Run("ApplyPlanGrant", func(t *testing.T) { testApplyPlanGrant(t, open(t)) })
	t.Run("ApplyPlanGrantCancelled", func(t *testing.T) { testApplyPlanGrantCancelled(t, open(t)) })
	t.Run("Telemetry", func(t *testing.T) { testTelemetry(t, open(t)) })
}

func newID() string { return uuid.NewString() }

func seedUser(t *testing.T, s *repository.Store, credits int) *model.User {
	t.Helper()
	id := newID()
	u := model.NewUser(id, id+"@example.com", time.Now().UTC().Truncate(time.Millisecond))
	u.Credits = credits
	require.NoError(t, s.Users.CreateUser(context.Background(), u))
	return u
}

func testEnsureUser(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	id := newID()

	_, err := s.Users.GetUserByID(ctx, id)
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	u, err := s.Users.EnsureUser(ctx, id, id+"@Example.com")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultCredits, u.Credits)
	assert.Equal(t, model.PlanBasic, u.Subscription)
	assert.Equal(t, id+"@example.com", u.Email)

	_, err = s.Usage.DebitCredits(ctx, id, 3, model.Usage{})
	require.NoError(t, err)

	again, err := s.Users.EnsureUser(ctx, id, id+"@example.com")
	require.NoError(t, err)
	assert.Equal(t, 7, again.Credits, "second EnsureUser must not reset the balance")
}

func testCreateUserDuplicate(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	u := seedUser(t, s, 10)

	err := s.Users.CreateUser(ctx, model.NewUser(u.ID, newID()+"@example.com", time.Now()))
	assert.True(t, errors.Is(err, repository.ErrDuplicate))

	err = s.Users.CreateUser(ctx, model.NewUser(newID(), u.Email, time.Now()))
	assert.True(t, errors.Is(err, repository.ErrDuplicate))
}

func testDebitCredits(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	u := seedUser(t, s, 10)
	now := time.Now().UTC().Truncate(time.Millisecond)

	balance, err := s.Usage.DebitCredits(ctx, u.ID, 1, model.Usage{
		Hashtags: []model.Hashtag{{ID: newID(), Tag: "#golang", CreatedAt: now}},
	})
	require.NoError(t, err)
	assert.Equal(t, 9, balance)

	balance, err = s.Usage.DebitCredits(ctx, u.ID, 1, model.Usage{
		ScrapeHistory: []model.ScrapeRecord{{ID: newID(), TaskType: "google", Content: "[]", CreatedAt: now}},
		Thumbnails:    []model.Thumbnail{{ID: newID(), URL: "data:image/jpeg;base64,AA==", CreatedAt: now}},
	})
	require.NoError(t, err)
	assert.Equal(t, 8, balance)

	got, err := s.Users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Credits)
	require.Len(t, got.Hashtags, 1)
	assert.Equal(t, "#golang", got.Hashtags[0].Tag)
	assert.Len(t, got.ScrapeHistory, 1)
	assert.Len(t, got.Thumbnails, 1)
	assert.Equal(t, 1, got.TotalScrapes)

	balance, err = s.Usage.DebitCredits(ctx, u.ID, 8, model.Usage{})
	require.NoError(t, err)
	assert.Equal(t, 0, balance, "debiting exactly the balance is allowed")

	_, err = s.Usage.DebitCredits(ctx, newID(), 1, model.Usage{})
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func testDebitInsufficient(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	u := seedUser(t, s, 2)

	_, err := s.Usage.DebitCredits(ctx, u.ID, 3, model.Usage{
		Hashtags: []model.Hashtag{{ID: newID(), Tag: "#nope", CreatedAt: time.Now().UTC()}},
	})
	require.True(t, errors.Is(err, repository.ErrInsufficientCredits))

	got, err := s.Users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Credits)
	assert.Empty(t, got.Hashtags, "a refused debit appends nothing")
}

func testDebitConcurrent(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	const start, callers = 5, 20
	u := seedUser(t, s, start)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		refused   int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Usage.DebitCredits(ctx, u.ID, 1, model.Usage{
				Hashtags: []model.Hashtag{{ID: newID(), Tag: "#race", CreatedAt: time.Now().UTC()}},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, repository.ErrInsufficientCredits):
				refused++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, start, succeeded)
	assert.Equal(t, callers-start, refused)

	got, err := s.Users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Credits)
	assert.Len(t, got.Hashtags, start)
}

func testTemplateUsage(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	u := seedUser(t, s, 30)
	base := time.Now().UTC().Truncate(time.Millisecond)

	var ids []string
	for i := 0; i < 25; i++ {
		id := newID()
		ids = append(ids, id)
		_, err := s.Usage.DebitCredits(ctx, u.ID, 1, model.Usage{
			TemplateUsage: []model.TemplateUsage{{ID: id, TemplateID: "tpl", Content: "c", CreatedAt: base.Add(time.Duration(i) * time.Second)}},
		})
		require.NoError(t, err)
	}

	recent, err := s.Usage.RecentTemplateUsage(ctx, u.ID, 20)
	require.NoError(t, err)
	require.Len(t, recent, 20)
	assert.Equal(t, ids[24], recent[0].ID)
	assert.Equal(t, ids[5], recent[19].ID)

	require.NoError(t, s.Usage.DeleteTemplateUsage(ctx, u.ID, ids[24]))
	err = s.Usage.DeleteTemplateUsage(ctx, u.ID, ids[24])
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	other := seedUser(t, s, 1)
	err = s.Usage.DeleteTemplateUsage(ctx, other.ID, ids[0])
	assert.True(t, errors.Is(err, repository.ErrNotFound), "records of another user are not visible")

	recent, err = s.Usage.RecentTemplateUsage(ctx, u.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, ids[23], recent[0].ID)
}

func testApplyPlanGrant(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	u := seedUser(t, s, 2)
	now := time.Now().UTC().Truncate(time.Millisecond)
	grant := model.NewPlanGrant("evt_"+newID(), u.ID, model.PlanPro, "cs_test", "complete", now)

	applied, err := s.Subscriptions.ApplyPlanGrant(ctx, grant)
	require.NoError(t, err)
	assert.True(t, applied)

	got, err := s.Users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 55, got.Credits)
	assert.Equal(t, model.PlanPro, got.Subscription)
	require.NotNil(t, got.SubscriptionEnd)
	assert.WithinDuration(t, now.AddDate(0, 1, 0), *got.SubscriptionEnd, time.Second)
	require.Len(t, got.WebhookData, 1)
	assert.Equal(t, grant.EventID, got.WebhookData[0].EventID)

	_, err = s.Usage.DebitCredits(ctx, u.ID, 5, model.Usage{})
	require.NoError(t, err)

	applied, err = s.Subscriptions.ApplyPlanGrant(ctx, grant)
	require.NoError(t, err)
	assert.False(t, applied, "a replayed event is a no-op")

	got, err = s.Users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Credits)
	assert.Len(t, got.WebhookData, 1)

	orphan := model.NewPlanGrant("evt_"+newID(), newID(), model.PlanBasic, "cs_x", "complete", now)
	_, err = s.Subscriptions.ApplyPlanGrant(ctx, orphan)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

// A grant interrupted by a cancelled context must leave nothing behind that blocks redelivery.
func testApplyPlanGrantCancelled(t *testing.T, s *repository.Store) {
	u := seedUser(t, s, 2)
	grant := model.NewPlanGrant("evt_"+newID(), u.ID, model.PlanPro, "cs_test", "complete", time.Now().UTC())

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	applied, err := s.Subscriptions.ApplyPlanGrant(cancelled, grant)
	require.Error(t, err)
	assert.False(t, applied)

	ctx := context.Background()
	got, err := s.Users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Credits)
	assert.Empty(t, got.WebhookData)

	applied, err = s.Subscriptions.ApplyPlanGrant(ctx, grant)
	require.NoError(t, err)
	assert.True(t, applied, "redelivery after a failed attempt must apply the grant")

	got, err = s.Users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 55, got.Credits)
	assert.Len(t, got.WebhookData, 1)
}

func testTelemetry(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	require.NoError(t, s.Telemetry.SaveTrainingData(ctx, &model.TrainingData{
		ID:          newID(),
		Source:      model.SourceSerpAPI,
		TextContent: "content",
		Hashtags:    []string{"#a"},
		CreatedAt:   time.Now().UTC(),
	}))
	require.NoError(t, s.Telemetry.SaveInteraction(ctx, &model.UserInteraction{
		ID:         newID(),
		UserID:     newID(),
		ActionType: model.InteractionAPICall,
		Details:    map[string]string{"path": "/api/credits"},
		Timestamp:  time.Now().UTC(),
	}))
}
