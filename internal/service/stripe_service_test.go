package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"creatorhub/internal/config"
	"creatorhub/internal/model"
	"creatorhub/internal/provider"
)

const testWebhookSecret = "whsec_test"

type fakeGateway struct {
	created *stripe.CheckoutSessionParams
	session *stripe.CheckoutSession
	err     error
}

func (f *fakeGateway) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.created = params
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func (f *fakeGateway) GetCheckoutSession(string, *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func newStripeTestService(env *testEnv, gateway CheckoutGateway) *StripeService {
	cfg := &config.Config{PublicBaseURL: "https://app.example.com/", StripeWebhookSecret: testWebhookSecret}
	svc := NewStripeService(cfg, NewSubscriptionService(env.store, zerolog.Nop()), env.telemetry, env.observer, zerolog.Nop())
	svc.gateway = gateway
	svc.now = func() time.Time { return testNow }
	return svc
}

func signedEvent(t *testing.T, eventID, eventType string, object map[string]any) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":          eventID,
		"object":      "event",
		"type":        eventType,
		"api_version": "2020-08-27",
		"data":        map[string]any{"object": object},
	})
	require.NoError(t, err)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: testWebhookSecret})
	return payload, signed.Header
}

func completedSession(userID, plan string) map[string]any {
	return map[string]any{
		"id":             "cs_test_1",
		"object":         "checkout.session",
		"payment_status": "paid",
		"payment_intent": "pi_123",
		"metadata":       map[string]string{"userId": userID, "planName": plan},
	}
}

func TestHandleWebhook_AppliesPlanOnce(t *testing.T) {
	env := newTestEnv(t, 2)
	svc := newStripeTestService(env, nil)
	payload, sig := signedEvent(t, "evt_1", "checkout.session.completed", completedSession("user-1", "Pro"))

	outcome, err := svc.HandleWebhook(context.Background(), payload, sig)
	require.NoError(t, err)
	assert.Equal(t, WebhookApplied, outcome)

	u := env.user(t)
	assert.Equal(t, 55, u.Credits)
	assert.Equal(t, model.PlanPro, u.Subscription)
	require.NotNil(t, u.SubscriptionEnd)
	assert.Equal(t, testNow.AddDate(0, 1, 0), u.SubscriptionEnd.UTC())
	require.Len(t, u.WebhookData, 1)
	assert.Equal(t, "evt_1", u.WebhookData[0].EventID)
	assert.Equal(t, "pi_123", u.WebhookData[0].PaymentReference)
	assert.Equal(t, "paid", u.WebhookData[0].Status)

	outcome, err = svc.HandleWebhook(context.Background(), payload, sig)
	require.NoError(t, err)
	assert.Equal(t, WebhookDuplicate, outcome)
	u = env.user(t)
	assert.Equal(t, 55, u.Credits)
	assert.Len(t, u.WebhookData, 1)

	interactions := env.store.Interactions()
	require.Len(t, interactions, 1)
	assert.Equal(t, model.InteractionPurchase, interactions[0].ActionType)
	assert.Equal(t, [][2]string{
		{"checkout.session.completed", "applied"},
		{"checkout.session.completed", "duplicate"},
	}, env.observer.webhooks)
}

func TestHandleWebhook_GrantSetsBalance(t *testing.T) {
	env := newTestEnv(t, 80)
	svc := newStripeTestService(env, nil)
	payload, sig := signedEvent(t, "evt_2", "checkout.session.completed", completedSession("user-1", "Standard"))

	_, err := svc.HandleWebhook(context.Background(), payload, sig)
	require.NoError(t, err)
	assert.Equal(t, 25, env.user(t).Credits)
}

func TestHandleWebhook_ClientReferenceFallback(t *testing.T) {
	env := newTestEnv(t, 0)
	svc := newStripeTestService(env, nil)
	session := map[string]any{
		"id":                  "cs_test_2",
		"object":              "checkout.session",
		"client_reference_id": "user-1",
		"subscription":        "sub_9",
		"metadata":            map[string]string{"planName": "Enterprise"},
	}
	payload, sig := signedEvent(t, "evt_3", "checkout.session.completed", session)

	outcome, err := svc.HandleWebhook(context.Background(), payload, sig)
	require.NoError(t, err)
	assert.Equal(t, WebhookApplied, outcome)
	u := env.user(t)
	assert.Equal(t, 150, u.Credits)
	assert.Equal(t, "sub_9", u.WebhookData[0].PaymentReference)
}

func TestHandleWebhook_RejectedButAcknowledged(t *testing.T) {
	tests := []struct {
		name    string
		session map[string]any
	}{
		{name: "unknown plan", session: completedSession("user-1", "Gold")},
		{name: "unknown user", session: completedSession("ghost", "Pro")},
		{name: "missing metadata", session: map[string]any{"id": "cs_x", "object": "checkout.session"}},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, 4)
			svc := newStripeTestService(env, nil)
			payload, sig := signedEvent(t, "evt_r"+string(rune('0'+i)), "checkout.session.completed", tt.session)

			outcome, err := svc.HandleWebhook(context.Background(), payload, sig)
			require.NoError(t, err)
			assert.Equal(t, WebhookRejected, outcome)
			assert.Equal(t, 4, env.user(t).Credits)
		})
	}
}

func TestHandleWebhook_IgnoresOtherEvents(t *testing.T) {
	env := newTestEnv(t, 4)
	svc := newStripeTestService(env, nil)
	payload, sig := signedEvent(t, "evt_4", "invoice.paid", map[string]any{"id": "in_1", "object": "invoice"})

	outcome, err := svc.HandleWebhook(context.Background(), payload, sig)
	require.NoError(t, err)
	assert.Equal(t, WebhookIgnored, outcome)
	assert.Equal(t, 4, env.user(t).Credits)
}

func TestHandleWebhook_InvalidSignature(t *testing.T) {
	env := newTestEnv(t, 4)
	svc := newStripeTestService(env, nil)
	payload, _ := signedEvent(t, "evt_5", "checkout.session.completed", completedSession("user-1", "Pro"))

	_, err := svc.HandleWebhook(context.Background(), payload, "t=1,v1=deadbeef")
	require.ErrorIs(t, err, ErrInvalidSignature)
	assert.Equal(t, 4, env.user(t).Credits)
}

func TestCreateCheckoutSession(t *testing.T) {
	env := newTestEnv(t, 4)
	gw := &fakeGateway{session: &stripe.CheckoutSession{ID: "cs_new"}}
	svc := newStripeTestService(env, gw)

	id, err := svc.CreateCheckoutSession(context.Background(), env.acct, "price_123", "Pro")
	require.NoError(t, err)
	assert.Equal(t, "cs_new", id)

	p := gw.created
	require.NotNil(t, p)
	assert.Equal(t, "subscription", *p.Mode)
	assert.Equal(t, "price_123", *p.LineItems[0].Price)
	assert.Equal(t, int64(1), *p.LineItems[0].Quantity)
	assert.Equal(t, "https://app.example.com/api/stripe/checkout-success?session_id={CHECKOUT_SESSION_ID}", *p.SuccessURL)
	assert.Equal(t, "https://app.example.com/dashboard", *p.CancelURL)
	assert.Equal(t, "user-1", *p.ClientReferenceID)
	assert.Equal(t, map[string]string{"userId": "user-1", "planName": "Pro"}, p.Metadata)
	assert.Equal(t, 4, env.user(t).Credits, "checkout never grants credits")
}

func TestCreateCheckoutSession_Errors(t *testing.T) {
	env := newTestEnv(t, 4)

	_, err := newStripeTestService(env, &fakeGateway{}).CreateCheckoutSession(context.Background(), env.acct, "price_1", "Gold")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = newStripeTestService(env, nil).CreateCheckoutSession(context.Background(), env.acct, "price_1", "Pro")
	assert.ErrorIs(t, err, provider.ErrNotConfigured)

	_, err = newStripeTestService(env, &fakeGateway{err: errors.New("card declined")}).CreateCheckoutSession(context.Background(), env.acct, "price_1", "Pro")
	assert.ErrorIs(t, err, provider.ErrUpstream)
}

func TestCheckoutStatus(t *testing.T) {
	env := newTestEnv(t, 4)
	gw := &fakeGateway{session: &stripe.CheckoutSession{ID: "cs_1", Status: stripe.CheckoutSessionStatusComplete}}
	svc := newStripeTestService(env, gw)

	status, err := svc.CheckoutStatus(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Equal(t, "complete", status)
	assert.Equal(t, 4, env.user(t).Credits)

	_, err = svc.CheckoutStatus(context.Background(), "")
	assert.ErrorIs(t, err, ErrValidation)
}
