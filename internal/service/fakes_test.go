package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"creatorhub/internal/model"
	"creatorhub/internal/provider"
	"creatorhub/internal/repository/memstore"
)

type fakeSearcher struct {
	resp    *provider.SearchResponse
	err     error
	queries []string
	engines []string
}

func (f *fakeSearcher) Search(_ context.Context, query, engine string) (*provider.SearchResponse, error) {
	f.queries = append(f.queries, query)
	f.engines = append(f.engines, engine)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type chatCall struct {
	model       string
	messages    []provider.Message
	temperature *float64
}

// fakeChat returns replies in order; an error at index i fails call i.
type fakeChat struct {
	replies []string
	errs    []error
	calls   []chatCall
}

func (f *fakeChat) Chat(_ context.Context, model string, messages []provider.Message, temperature *float64) (string, error) {
	i := len(f.calls)
	f.calls = append(f.calls, chatCall{model: model, messages: messages, temperature: temperature})
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.replies) {
		return f.replies[i], nil
	}
	if len(f.replies) > 0 {
		return f.replies[len(f.replies)-1], nil
	}
	return "", nil
}

type fakeImages struct {
	img         []byte
	contentType string
	err         error
	repos       []string
}

func (f *fakeImages) TextToImage(_ context.Context, repo, _ string) ([]byte, string, error) {
	f.repos = append(f.repos, repo)
	if f.err != nil {
		return nil, "", f.err
	}
	return f.img, f.contentType, nil
}

type fakeSentiment struct {
	mu     sync.Mutex
	result provider.Sentiment
	err    error
	texts  []string
}

func (f *fakeSentiment) ClassifySentiment(_ context.Context, text string) (provider.Sentiment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	if f.err != nil {
		return provider.Sentiment{}, f.err
	}
	return f.result, nil
}

type fakeArchive struct {
	url  string
	err  error
	keys []string
}

func (f *fakeArchive) Put(_ context.Context, key, _ string, _ []byte) (string, error) {
	f.keys = append(f.keys, key)
	if f.err != nil {
		return "", f.err
	}
	return f.url + "/" + key, nil
}

type fakePublisher struct {
	mu       sync.Mutex
	err      error
	topics   []string
	payloads [][]byte
}

func (f *fakePublisher) Publish(_ context.Context, topic string, payload []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)
	return "msg-1", nil
}

func (f *fakePublisher) Close() error { return nil }

type chargeRecord struct {
	action, outcome string
	debited         int
}

type fakeObserver struct {
	mu        sync.Mutex
	charges   []chargeRecord
	publishes []error
	webhooks  [][2]string
}

func (f *fakeObserver) ObserveCharge(action, outcome string, debited int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.charges = append(f.charges, chargeRecord{action, outcome, debited})
}

func (f *fakeObserver) ObservePublish(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publishes = append(f.publishes, err)
}

func (f *fakeObserver) ObserveWebhook(eventType, outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.webhooks = append(f.webhooks, [2]string{eventType, outcome})
}

// testEnv is a memstore with one user plus a meter over it.
type testEnv struct {
	store     *memstore.Store
	meter     *Meter
	publisher *fakePublisher
	observer  *fakeObserver
	telemetry *TelemetryService
	acct      model.Account
}

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T, credits int) *testEnv {
	t.Helper()
	store := memstore.New()
	u := model.NewUser("user-1", "creator@example.com", testNow)
	u.Credits = credits
	require.NoError(t, store.CreateUser(context.Background(), u))

	pub := &fakePublisher{}
	obs := &fakeObserver{}
	return &testEnv{
		store:     store,
		meter:     NewMeter(store, pub, "usage-events", obs, zerolog.Nop()),
		publisher: pub,
		observer:  obs,
		telemetry: NewTelemetryService(store, zerolog.Nop()),
		acct:      u.Account(),
	}
}

func (e *testEnv) user(t *testing.T) *model.User {
	t.Helper()
	u, err := e.store.GetUserByID(context.Background(), e.acct.UserID)
	require.NoError(t, err)
	return u
}

func upstreamErr(status int) error {
	return &provider.StatusError{Provider: "test", StatusCode: status}
}
