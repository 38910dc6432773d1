package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"creatorhub/internal/model"
	"creatorhub/internal/repository"
)

const telemetryTimeout = 5 * time.Second

// TelemetryService writes analytics documents. Failures are logged and never reach the caller.
type TelemetryService struct {
	repo   repository.TelemetryRepository
	now    func() time.Time
	logger zerolog.Logger
}

func NewTelemetryService(repo repository.TelemetryRepository, logger zerolog.Logger) *TelemetryService {
	return &TelemetryService{
		repo:   repo,
		now:    time.Now,
		logger: logger.With().Str("service", "TelemetryService").Logger(),
	}
}

// RecordTrainingData stores generated content. It outlives the request context.
func (s *TelemetryService) RecordTrainingData(ctx context.Context, d model.TrainingData) {
	if s == nil {
		return
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = s.now().UTC()
	}
	if d.Hashtags == nil {
		d.Hashtags = []string{}
	}
	if d.Hooks == nil {
		d.Hooks = []string{}
	}
	if d.AILabels == nil {
		d.AILabels = []string{}
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), telemetryTimeout)
	defer cancel()
	if err := s.repo.SaveTrainingData(ctx, &d); err != nil {
		s.logger.Warn().Err(err).Str("source", d.Source).Msg("Failed to save training data")
	}
}

// RecordInteraction stores one interaction log entry.
func (s *TelemetryService) RecordInteraction(ctx context.Context, i model.UserInteraction) {
	if s == nil {
		return
	}
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = s.now().UTC()
	}
	if i.Details == nil {
		i.Details = map[string]string{}
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), telemetryTimeout)
	defer cancel()
	if err := s.repo.SaveInteraction(ctx, &i); err != nil {
		s.logger.Warn().Err(err).Str("user_id", i.UserID).Msg("Failed to save interaction")
	}
}

// DeviceType classifies a user agent as mobile, tablet or desktop.
func DeviceType(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "mobile"):
		return "mobile"
	case strings.Contains(ua, "tablet"):
		return "tablet"
	default:
		return "desktop"
	}
}

var nonWord = regexp.MustCompile(`[^\w\s]`)

// NormalizeQuery lowercases a search query and strips punctuation.
func NormalizeQuery(q string) string {
	return nonWord.ReplaceAllString(strings.TrimSpace(strings.ToLower(q)), "")
}
