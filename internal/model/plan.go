package model

import (
	"fmt"
	"strings"
	"time"
)

// Plan is a subscription tier.
type Plan string

const (
	PlanBasic      Plan = "Basic"
	PlanStandard   Plan = "Standard"
	PlanPro        Plan = "Pro"
	PlanEnterprise Plan = "Enterprise"
)

// planCredits maps each plan to the balance granted on purchase.
var planCredits = map[Plan]int{
	PlanBasic:      10,
	PlanStandard:   25,
	PlanPro:        55,
	PlanEnterprise: 150,
}

// SubscriptionPeriod is the length of a purchased plan.
const SubscriptionPeriod = 1 // months

// ParsePlan returns the plan for a plan name. Unknown names are rejected.
func ParsePlan(name string) (Plan, error) {
	p := Plan(strings.TrimSpace(name))
	if _, ok := planCredits[p]; !ok {
		return "", fmt.Errorf("unknown plan %q", name)
	}
	return p, nil
}

// Credits returns the credit grant for the plan, or 0 for an unknown plan.
func (p Plan) Credits() int {
	return planCredits[p]
}

// Valid reports whether p is a known plan.
func (p Plan) Valid() bool {
	_, ok := planCredits[p]
	return ok
}

// PlanGrant is a completed purchase to apply to a user exactly once.
type PlanGrant struct {
	EventID          string
	UserID           string
	Plan             Plan
	Credits          int
	PaymentReference string
	Status           string
	StartsAt         time.Time
	EndsAt           time.Time
}

// NewPlanGrant builds the grant for a purchase completed at now.
func NewPlanGrant(eventID, userID string, plan Plan, paymentRef, status string, now time.Time) PlanGrant {
	return PlanGrant{
		EventID:          eventID,
		UserID:           userID,
		Plan:             plan,
		Credits:          plan.Credits(),
		PaymentReference: paymentRef,
		Status:           status,
		StartsAt:         now,
		EndsAt:           now.AddDate(0, SubscriptionPeriod, 0),
	}
}

// WebhookRecord returns the ledger entry stored on the user for this grant.
func (g PlanGrant) WebhookRecord() WebhookRecord {
	return WebhookRecord{
		EventID:          g.EventID,
		PaymentReference: g.PaymentReference,
		Status:           g.Status,
		MediaReferences:  []string{},
		ReceivedAt:       g.StartsAt,
	}
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
