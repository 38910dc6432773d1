package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"creatorhub/internal/catalog"
	"creatorhub/internal/model"
	"creatorhub/internal/provider"
	"creatorhub/internal/repository"
)

const (
	recentTemplateLimit = 20
	unknownTitle        = "Unknown Title"
	unknownDescription  = "No description available"
)

// RecentTemplate is a logged template usage enriched with its catalog entry.
type RecentTemplate struct {
	ID          string          `json:"id"`
	TemplateID  string          `json:"templateId"`
	Content     string          `json:"content"`
	CreatedAt   time.Time       `json:"createdAt"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Command     string          `json:"command,omitempty"`
	Categories  []string        `json:"categories,omitempty"`
	Inputs      []catalog.Input `json:"inputs,omitempty"`
}

// TemplateService generates and records template-based content.
type TemplateService struct {
	meter   *Meter
	chat    ChatCompleter
	catalog *catalog.Catalog
	usage   repository.UsageRepository
	events  *TelemetryService
	now     func() time.Time
	logger  zerolog.Logger
}

func NewTemplateService(meter *Meter, chat ChatCompleter, cat *catalog.Catalog, usage repository.UsageRepository, events *TelemetryService, logger zerolog.Logger) *TemplateService {
	return &TemplateService{
		meter:   meter,
		chat:    chat,
		catalog: cat,
		usage:   usage,
		events:  events,
		now:     time.Now,
		logger:  logger.With().Str("service", "TemplateService").Logger(),
	}
}

// Generate asks the chat model for three numbered outputs for a filled-in template. A template
// sent without a command is completed from the catalog by id.
func (s *TemplateService) Generate(ctx context.Context, acct model.Account, tmpl catalog.Template, inputs map[string]string, chatModel string) (string, error) {
	if tmpl.Command == "" {
		if known, ok := s.catalog.Find(tmpl.ID); ok {
			tmpl = known
		}
	}
	if strings.TrimSpace(tmpl.Command) == "" {
		return "", fmt.Errorf("%w: template command is required", ErrValidation)
	}

	messages := []provider.Message{
		{Role: "system", Content: "You are a helpful assistant."},
		{Role: "user", Content: fmt.Sprintf("Your task is: \"%s\".\n\nHere are the details:\n%s. Please suggest 3 outputs. number them 1,2,3",
			tmpl.Command, buildInstruction(tmpl.Inputs, inputs))},
	}
	temperature := 1.0

	var reply string
	_, err := s.meter.Charge(ctx, acct, ActionTemplateGeneration, func(ctx context.Context) (model.Usage, error) {
		var err error
		reply, err = s.chat.Chat(ctx, chatModel, messages, &temperature)
		return model.Usage{}, err
	})
	if err != nil {
		return "", err
	}
	return reply, nil
}

// buildInstruction renders one "Label: value" line per template input.
func buildInstruction(fields []catalog.Input, values map[string]string) string {
	lines := make([]string, len(fields))
	for i, f := range fields {
		lines[i] = f.Label + ": " + values[f.ID]
	}
	return strings.Join(lines, "\n")
}

// Log records generated template content. This is where template generation is paid for.
func (s *TemplateService) Log(ctx context.Context, acct model.Account, templateID, content string) (Receipt, error) {
	templateID, content = strings.TrimSpace(templateID), strings.TrimSpace(content)
	if templateID == "" || content == "" {
		return Receipt{}, fmt.Errorf("%w: template ID and content are required", ErrValidation)
	}
	receipt, err := s.meter.Charge(ctx, acct, ActionLogTemplate, func(context.Context) (model.Usage, error) {
		return model.Usage{TemplateUsage: []model.TemplateUsage{{
			ID:         uuid.NewString(),
			TemplateID: templateID,
			Content:    content,
			CreatedAt:  s.now().UTC(),
		}}}, nil
	})
	if err != nil {
		return Receipt{}, err
	}
	s.events.RecordInteraction(ctx, model.UserInteraction{
		UserID:     acct.UserID,
		ActionType: model.InteractionTemplateUsage,
		Details:    map[string]string{"templateId": templateID},
	})
	return receipt, nil
}

// Recent returns the newest logged template usages with their catalog details.
func (s *TemplateService) Recent(ctx context.Context, userID string) ([]RecentTemplate, error) {
	records, err := s.usage.RecentTemplateUsage(ctx, userID, recentTemplateLimit)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch recent templates")
		return nil, persistenceError(err)
	}
	out := make([]RecentTemplate, 0, len(records))
	for _, r := range records {
		rt := RecentTemplate{
			ID:          r.ID,
			TemplateID:  r.TemplateID,
			Content:     r.Content,
			CreatedAt:   r.CreatedAt,
			Title:       unknownTitle,
			Description: unknownDescription,
		}
		if t, ok := s.catalog.Find(r.TemplateID); ok {
			rt.Command, rt.Categories, rt.Inputs = t.Command, t.Categories, t.Inputs
			if t.Title != "" {
				rt.Title = t.Title
			}
			if t.Description != "" {
				rt.Description = t.Description
			}
		} else {
			s.logger.Warn().Str("template_id", r.TemplateID).Msg("Template not found in catalog")
		}
		out = append(out, rt)
	}
	return out, nil
}

// Delete removes one of the user's template usage records.
func (s *TemplateService) Delete(ctx context.Context, userID, usageID string) error {
	if strings.TrimSpace(usageID) == "" {
		return fmt.Errorf("%w: usageId is required", ErrValidation)
	}
	if err := s.usage.DeleteTemplateUsage(ctx, userID, usageID); err != nil {
		return persistenceError(err)
	}
	return nil
}

// Dashboard returns catalog statistics.
func (s *TemplateService) Dashboard() catalog.Stats {
	return s.catalog.Stats()
}
