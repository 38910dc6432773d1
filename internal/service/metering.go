package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"creatorhub/internal/model"
	"creatorhub/internal/provider"
	"creatorhub/internal/pubsub"
	"creatorhub/internal/repository"
)

// Action names a credit-metered operation.
type Action string

const (
	ActionGenerateHashtags   Action = "generate_hashtags"
	ActionGenerateThumbnail  Action = "generate_thumbnail"
	ActionTrendingHashtags   Action = "trending_hashtags"
	ActionWebScrape          Action = "web_scrape"
	ActionContentSuggestions Action = "content_suggestions"
	ActionLogTemplate        Action = "log_template"
	ActionTemplateGeneration Action = "template_generation"
	ActionSectionSuggestions Action = "section_suggestions"
	ActionSentiment          Action = "sentiment"
)

// costTable is the single place credit prices are defined. Template generation is free; the
// credit is taken when the result is logged.
var costTable = map[Action]int{
	ActionGenerateHashtags:   1,
	ActionGenerateThumbnail:  1,
	ActionTrendingHashtags:   3,
	ActionWebScrape:          1,
	ActionContentSuggestions: 1,
	ActionLogTemplate:        1,
	ActionTemplateGeneration: 0,
	ActionSectionSuggestions: 0,
	ActionSentiment:          0,
}

// Cost returns the credit price of the action.
func (a Action) Cost() int {
	return costTable[a]
}

// CostTable returns a copy of the price list.
func CostTable() map[Action]int {
	out := make(map[Action]int, len(costTable))
	for a, c := range costTable {
		out[a] = c
	}
	return out
}

// Charge outcomes reported to the observer.
const (
	OutcomeOK                  = "ok"
	OutcomeInsufficientCredits = "insufficient_credits"
	OutcomeUpstreamFailure     = "upstream_failure"
	OutcomeValidationFailed    = "validation_failed"
	OutcomeNotFound            = "not_found"
	OutcomePersistenceFailure  = "persistence_failure"
)

// Receipt is the result of a successful charge.
type Receipt struct {
	Action  Action
	Cost    int
	Balance int
}

// UsageEvent is published after every successful debit.
type UsageEvent struct {
	ID      string    `json:"id"`
	UserID  string    `json:"userId"`
	Action  Action    `json:"action"`
	Cost    int       `json:"cost"`
	Balance int       `json:"balance"`
	At      time.Time `json:"at"`
}

// ChargeObserver receives metering outcomes. metrics.Metrics implements it.
type ChargeObserver interface {
	ObserveCharge(action, outcome string, debited int)
	ObservePublish(err error)
}

type nopChargeObserver struct{}

func (nopChargeObserver) ObserveCharge(string, string, int) {}
func (nopChargeObserver) ObservePublish(error)              {}

// ProduceFunc makes the action's single provider call and returns the usage records to append.
type ProduceFunc func(ctx context.Context) (model.Usage, error)

const publishTimeout = 3 * time.Second

// Meter runs the credit-metered request lifecycle.
type Meter struct {
	usage     repository.UsageRepository
	publisher pubsub.Publisher
	topic     string
	observer  ChargeObserver
	logger    zerolog.Logger
	now       func() time.Time
}

// NewMeter creates a Meter. publisher and observer may be nil.
func NewMeter(usage repository.UsageRepository, publisher pubsub.Publisher, topic string, observer ChargeObserver, logger zerolog.Logger) *Meter {
	if publisher == nil {
		publisher = pubsub.NoopPublisher{}
	}
	if observer == nil {
		observer = nopChargeObserver{}
	}
	return &Meter{
		usage:     usage,
		publisher: publisher,
		topic:     topic,
		observer:  observer,
		logger:    logger.With().Str("service", "Meter").Logger(),
		now:       time.Now,
	}
}

// Charge checks the balance, runs produce once and then debits the action's cost together with
// the usage produce returned. A failed produce debits nothing. When the balance no longer covers
// the cost at debit time the result of produce is discarded and ErrInsufficientCredits returned.
func (m *Meter) Charge(ctx context.Context, acct model.Account, action Action, produce ProduceFunc) (Receipt, error) {
	cost, ok := costTable[action]
	if !ok {
		return Receipt{}, fmt.Errorf("unknown action %q", action)
	}
	log := m.logger.With().Str("user_id", acct.UserID).Str("action", string(action)).Logger()

	if acct.Credits < cost {
		m.observer.ObserveCharge(string(action), OutcomeInsufficientCredits, 0)
		log.Info().Int("credits", acct.Credits).Int("cost", cost).Msg("Insufficient credits")
		return Receipt{}, ErrInsufficientCredits
	}

	usage, err := produce(ctx)
	if err != nil {
		m.observer.ObserveCharge(string(action), failureOutcome(err), 0)
		log.Error().Err(err).Msg("Generation failed, no credits debited")
		return Receipt{}, err
	}

	if cost == 0 && usage.IsEmpty() {
		m.observer.ObserveCharge(string(action), OutcomeOK, 0)
		return Receipt{Action: action, Cost: 0, Balance: acct.Credits}, nil
	}

	balance, err := m.usage.DebitCredits(ctx, acct.UserID, cost, usage)
	if err != nil {
		err = persistenceError(err)
		m.observer.ObserveCharge(string(action), failureOutcome(err), 0)
		if errors.Is(err, ErrInsufficientCredits) {
			log.Warn().Msg("Balance changed before debit, discarding generated content")
		} else {
			log.Error().Err(err).Msg("Failed to debit credits")
		}
		return Receipt{}, err
	}

	m.observer.ObserveCharge(string(action), OutcomeOK, cost)
	log.Info().Int("cost", cost).Int("balance", balance).Msg("Credits debited")
	if cost > 0 {
		m.publish(ctx, UsageEvent{
			ID:      uuid.NewString(),
			UserID:  acct.UserID,
			Action:  action,
			Cost:    cost,
			Balance: balance,
			At:      m.now().UTC(),
		})
	}
	return Receipt{Action: action, Cost: cost, Balance: balance}, nil
}

// publish is best effort; the debit has already happened.
func (m *Meter) publish(ctx context.Context, ev UsageEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		m.logger.Error().Err(err).Msg("Failed to marshal usage event")
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	_, err = m.publisher.Publish(ctx, m.topic, payload)
	m.observer.ObservePublish(err)
	if err != nil {
		m.logger.Warn().Err(err).Str("user_id", ev.UserID).Str("action", string(ev.Action)).Msg("Failed to publish usage event")
	}
}

func failureOutcome(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientCredits):
		return OutcomeInsufficientCredits
	case errors.Is(err, ErrValidation):
		return OutcomeValidationFailed
	case errors.Is(err, repository.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, provider.ErrUpstream), errors.Is(err, provider.ErrNotConfigured):
		return OutcomeUpstreamFailure
	default:
		return OutcomePersistenceFailure
	}
}
