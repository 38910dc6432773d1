package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"

	"creatorhub/internal/config"
	"creatorhub/internal/model"
	"creatorhub/internal/provider"
	"creatorhub/internal/repository"
)

// WebhookOutcome is how a verified webhook event was handled.
type WebhookOutcome string

const (
	WebhookApplied   WebhookOutcome = "applied"
	WebhookDuplicate WebhookOutcome = "duplicate"
	WebhookRejected  WebhookOutcome = "rejected"
	WebhookIgnored   WebhookOutcome = "ignored"
)

// CheckoutGateway is the subset of the Stripe API used for checkout.
type CheckoutGateway interface {
	NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	GetCheckoutSession(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type stripeCheckout struct{}

func (stripeCheckout) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return checkoutsession.New(params)
}

func (stripeCheckout) GetCheckoutSession(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return checkoutsession.Get(id, params)
}

// WebhookObserver receives webhook outcomes. metrics.Metrics implements it.
type WebhookObserver interface {
	ObserveWebhook(eventType, outcome string)
}

// StripeService manages Stripe integration
type StripeService struct {
	gateway       CheckoutGateway
	webhookSecret string
	baseURL       string
	subSvc        SubscriptionService
	telemetry     *TelemetryService
	observer      WebhookObserver
	now           func() time.Time
	logger        zerolog.Logger
}

// NewStripeService initializes Stripe key and returns service with a scoped logger. Checkout
// fails closed when no secret key is configured.
func NewStripeService(cfg *config.Config, subSvc SubscriptionService, telemetry *TelemetryService, observer WebhookObserver, logger zerolog.Logger) *StripeService {
	s := &StripeService{
		webhookSecret: cfg.StripeWebhookSecret,
		baseURL:       strings.TrimRight(cfg.PublicBaseURL, "/"),
		subSvc:        subSvc,
		telemetry:     telemetry,
		observer:      observer,
		now:           time.Now,
		logger:        logger.With().Str("service", "StripeService").Logger(),
	}
	if cfg.StripeSecretKey != "" {
		stripe.Key = cfg.StripeSecretKey
		s.gateway = stripeCheckout{}
	}
	return s
}

// CreateCheckoutSession starts a subscription checkout for a known plan and returns the session id.
func (s *StripeService) CreateCheckoutSession(ctx context.Context, acct model.Account, priceID, planName string) (string, error) {
	plan, err := model.ParsePlan(planName)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if strings.TrimSpace(priceID) == "" {
		return "", fmt.Errorf("%w: priceId is required", ErrValidation)
	}
	if s.gateway == nil {
		return "", fmt.Errorf("stripe: secret key is not configured: %w", provider.ErrNotConfigured)
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          []*stripe.CheckoutSessionLineItemParams{{Price: stripe.String(priceID), Quantity: stripe.Int64(1)}},
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL:         stripe.String(s.baseURL + "/api/stripe/checkout-success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:          stripe.String(s.baseURL + "/dashboard"),
		ClientReferenceID:  stripe.String(acct.UserID),
		Metadata:           map[string]string{"userId": acct.UserID, "planName": string(plan)},
	}
	params.Context = ctx
	sess, err := s.gateway.NewCheckoutSession(params)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", acct.UserID).Str("plan", string(plan)).Msg("Failed to create Stripe checkout session")
		return "", fmt.Errorf("stripe: create checkout session: %w: %w", provider.ErrUpstream, err)
	}
	if sess.ID == "" {
		return "", fmt.Errorf("stripe: checkout session has no id: %w", provider.ErrUpstream)
	}
	return sess.ID, nil
}

// CheckoutStatus reads a checkout session's status. Credits are only granted by the webhook,
// so this never touches the balance.
func (s *StripeService) CheckoutStatus(ctx context.Context, sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", fmt.Errorf("%w: missing session ID", ErrValidation)
	}
	if s.gateway == nil {
		return "", fmt.Errorf("stripe: secret key is not configured: %w", provider.ErrNotConfigured)
	}
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := s.gateway.GetCheckoutSession(sessionID, params)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("Failed to retrieve checkout session")
		return "", fmt.Errorf("stripe: retrieve checkout session: %w: %w", provider.ErrUpstream, err)
	}
	s.logger.Info().
		Str("session_id", sessionID).
		Str("status", string(sess.Status)).
		Str("payment_status", string(sess.PaymentStatus)).
		Msg("Checkout session status")
	return string(sess.Status), nil
}

// HandleWebhook verifies and processes a Stripe event. Business failures such as missing
// metadata, an unknown plan or an unknown user are logged and acknowledged; only signature and
// persistence failures return an error.
func (s *StripeService) HandleWebhook(ctx context.Context, payload []byte, signature string) (WebhookOutcome, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		s.logger.Error().Err(err).Msg("Signature verification failed for Stripe webhook")
		s.observe("unverified", WebhookRejected)
		return WebhookRejected, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	log := s.logger.With().Str("event_id", event.ID).Str("event_type", string(event.Type)).Logger()
	log.Info().Msg("Stripe webhook received")

	var outcome WebhookOutcome
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		outcome, err = s.checkoutCompleted(ctx, event, log)
	default:
		log.Warn().Msg("Unhandled Stripe webhook event")
		outcome = WebhookIgnored
	}
	if err != nil {
		s.observe(string(event.Type), "error")
		return outcome, err
	}
	s.observe(string(event.Type), outcome)
	return outcome, nil
}

func (s *StripeService) checkoutCompleted(ctx context.Context, event stripe.Event, log zerolog.Logger) (WebhookOutcome, error) {
	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		log.Error().Err(err).Msg("Invalid checkout.session data")
		return WebhookRejected, nil
	}

	userID := cs.Metadata["userId"]
	if userID == "" {
		userID = cs.ClientReferenceID
	}
	planName := cs.Metadata["planName"]
	if userID == "" || planName == "" {
		log.Error().Str("session_id", cs.ID).Msg("Missing userId or planName in checkout session metadata")
		return WebhookRejected, nil
	}
	plan, err := model.ParsePlan(planName)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Unknown plan in checkout session")
		return WebhookRejected, nil
	}

	status := string(cs.PaymentStatus)
	if status == "" {
		status = "completed"
	}
	grant := model.NewPlanGrant(event.ID, userID, plan, paymentReference(&cs), status, s.now().UTC())
	applied, err := s.subSvc.ApplyPlanGrant(ctx, grant)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		log.Error().Str("user_id", userID).Msg("User not found for checkout session")
		return WebhookRejected, nil
	case err != nil:
		return WebhookRejected, err
	case !applied:
		return WebhookDuplicate, nil
	}

	s.telemetry.RecordInteraction(ctx, model.UserInteraction{
		UserID:     userID,
		ActionType: model.InteractionPurchase,
		Details: map[string]string{
			"plan":      string(plan),
			"eventId":   event.ID,
			"sessionId": cs.ID,
		},
	})
	log.Info().Str("user_id", userID).Str("plan", string(plan)).Int("credits", grant.Credits).Msg("Subscription updated")
	return WebhookApplied, nil
}

func (s *StripeService) observe(eventType string, outcome WebhookOutcome) {
	if s.observer != nil {
		s.observer.ObserveWebhook(eventType, string(outcome))
	}
}

// paymentReference prefers the payment intent, then the subscription, then the session id.
func paymentReference(cs *stripe.CheckoutSession) string {
	switch {
	case cs.PaymentIntent != nil && cs.PaymentIntent.ID != "":
		return cs.PaymentIntent.ID
	case cs.Subscription != nil && cs.Subscription.ID != "":
		return cs.Subscription.ID
	default:
		return cs.ID
	}
}
