package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"creatorhub/internal/api/v1/dto"
	"creatorhub/internal/api/v1/respond"
	"creatorhub/internal/service"
)

// SubscriptionHandler handles subscription-related endpoints.
type SubscriptionHandler struct {
	stripeSvc *service.StripeService
	validate  *validator.Validate
	logger    zerolog.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(stripeSvc *service.StripeService, validate *validator.Validate, logger zerolog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{stripeSvc: stripeSvc, validate: validate, logger: logger.With().Str("handler", "SubscriptionHandler").Logger()}
}

// RegisterRoutes registers the authenticated checkout endpoint.
func (h *SubscriptionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/stripe/create-checkout-session", h.Checkout)
}

// RegisterPublicRoutes registers the endpoints Stripe and the browser redirect call without a
// session token.
func (h *SubscriptionHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/stripe/webhook", h.Webhook)
	r.Get("/stripe/checkout-success", h.CheckoutSuccess)
}

// Checkout creates a Stripe Checkout session for a plan purchase.
func (h *SubscriptionHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	acct, ok := account(w, r)
	if !ok {
		return
	}
	var req dto.CheckoutSessionCreateDTO
	if err := decodeAndValidate(w, r, h.validate, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	sessionID, err := h.stripeSvc.CreateCheckoutSession(r.Context(), acct, req.PriceID, req.PlanName)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.CheckoutSessionResponseDTO{SessionID: sessionID})
}

// Webhook verifies and applies a Stripe event. Anything except a bad signature or a store failure
// is acknowledged so Stripe stops redelivering it.
func (h *SubscriptionHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to read webhook body")
		respond.Error(w, http.StatusBadRequest, respond.CodeValidationFailed, "Invalid payload")
		return
	}
	outcome, err := h.stripeSvc.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if !errors.Is(err, service.ErrInvalidSignature) {
			h.logger.Error().Err(err).Msg("Failed to process webhook, Stripe will retry")
		}
		writeError(w, h.logger, err)
		return
	}
	h.logger.Debug().Str("outcome", string(outcome)).Msg("Webhook processed")
	respond.JSON(w, http.StatusOK, dto.WebhookAckDTO{Received: true})
}

// CheckoutSuccess is the post-payment browser redirect. It only reads the session status; the
// webhook grants the credits.
func (h *SubscriptionHandler) CheckoutSuccess(w http.ResponseWriter, r *http.Request) {
	status, err := h.stripeSvc.CheckoutStatus(r.Context(), r.URL.Query().Get("session_id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.logger.Info().Str("status", status).Msg("Checkout completed, redirecting to dashboard")
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}
