package dto

// CheckoutSessionCreateDTO is the body of POST /stripe/create-checkout-session
type CheckoutSessionCreateDTO struct {
	PriceID  string `json:"priceId" validate:"required"`
	PlanName string `json:"planName" validate:"required,oneof=Basic Standard Pro Enterprise"`
}

type CheckoutSessionResponseDTO struct {
	SessionID string `json:"sessionId"`
}

// WebhookAckDTO acknowledges a Stripe event so it is not redelivered
type WebhookAckDTO struct {
	Received bool `json:"received"`
}
