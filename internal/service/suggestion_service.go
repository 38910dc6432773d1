package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"creatorhub/internal/model"
	"creatorhub/internal/provider"
)

const (
	suggestionCount      = 4
	suggestionMaxRunes   = 100
	suggestionTopicRunes = 100
	suggestionPrompt     = "You are a content strategy expert. Generate 4 unique content ideas related to the given topic. " +
		"Make them specific and actionable. Keep each suggestion under 100 characters to comply with API limits."
)

// sectionFocus narrows the suggestion prompt for the analytics dashboard sections.
var sectionFocus = map[string]string{
	"Industry News & Updates":     " Focus on recent developments and news articles.",
	"Social Media Trends":         " Focus on trending topics and engagement strategies.",
	"Financial Trends & Advice":   " Focus on market analysis and investment strategies.",
	"YouTube Metrics & Analytics": " Focus on video performance and audience engagement.",
}

// historicalAverages are the per-suggestion baselines performance estimates scale from.
var historicalAverages = struct {
	Views, Likes, Shares, TimeSpent, LongTermEngagement int
}{Views: 150, Likes: 30, Shares: 10, TimeSpent: 7, LongTermEngagement: 50}

// Demographics is the audience breakdown of a suggestion. Not populated yet.
type Demographics struct {
	AgeGroups map[string]int `json:"ageGroups"`
	Geography map[string]int `json:"geography"`
	Interests []string       `json:"interests"`
}

// Performance is the estimated performance of a suggestion.
type Performance struct {
	Views              int     `json:"views"`
	Likes              int     `json:"likes"`
	Shares             int     `json:"shares"`
	EngagementRate     float64 `json:"engagementRate"`
	ConversionRate     float64 `json:"conversionRate"`
	AverageTimeSpent   int     `json:"averageTimeSpent"`
	LongTermEngagement int     `json:"longTermEngagement"`
}

// Metrics are the estimates attached to a content suggestion.
type Metrics struct {
	Views        int                `json:"views"`
	Likes        int                `json:"likes"`
	Shares       int                `json:"shares"`
	Demographics Demographics       `json:"demographics"`
	Sentiment    provider.Sentiment `json:"sentiment"`
	Performance  Performance        `json:"performance"`
}

// Suggestion is one content idea.
type Suggestion struct {
	Suggestion string  `json:"suggestion"`
	Metrics    Metrics `json:"metrics"`
}

// SuggestionsResult is the outcome of a metered suggestion request.
type SuggestionsResult struct {
	Suggestions []Suggestion
	Receipt     Receipt
}

// SectionSuggestions is the unmetered suggestion view for a dashboard section.
type SectionSuggestions struct {
	Sentiment   provider.Sentiment `json:"sentiment"`
	Suggestions []string           `json:"suggestions"`
}

// RetryPolicy bounds the retries of the content suggestion call.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// SuggestionService generates content ideas and sentiment.
type SuggestionService struct {
	meter     *Meter
	chat      ChatCompleter
	sentiment SentimentClassifier
	telemetry *TelemetryService
	retry     RetryPolicy
	logger    zerolog.Logger
}

func NewSuggestionService(meter *Meter, chat ChatCompleter, sentiment SentimentClassifier, telemetry *TelemetryService, retry RetryPolicy, logger zerolog.Logger) *SuggestionService {
	if retry.Attempts < 1 {
		retry.Attempts = 1
	}
	return &SuggestionService{
		meter:     meter,
		chat:      chat,
		sentiment: sentiment,
		telemetry: telemetry,
		retry:     retry,
		logger:    logger.With().Str("service", "SuggestionService").Logger(),
	}
}

// ContentSuggestions asks for four ideas on topic and estimates metrics for each.
func (s *SuggestionService) ContentSuggestions(ctx context.Context, acct model.Account, topic string) (*SuggestionsResult, error) {
	topic = truncateRunes(strings.TrimSpace(topic), suggestionTopicRunes)
	if topic == "" {
		return nil, fmt.Errorf("%w: topic is required", ErrValidation)
	}

	var suggestions []Suggestion
	receipt, err := s.meter.Charge(ctx, acct, ActionContentSuggestions, func(ctx context.Context) (model.Usage, error) {
		ideas, err := s.generateWithRetry(ctx, suggestionPrompt, topic)
		if err != nil {
			return model.Usage{}, err
		}
		suggestions = s.withMetrics(ctx, ideas)
		return model.Usage{}, nil
	})
	if err != nil {
		return nil, err
	}

	text, _ := json.Marshal(suggestions)
	s.telemetry.RecordTrainingData(ctx, model.TrainingData{
		UserID:      acct.UserID,
		Source:      model.SourceContentSuggestion,
		TextContent: string(text),
		Category:    "suggestions",
	})
	s.telemetry.RecordInteraction(ctx, model.UserInteraction{
		UserID:     acct.UserID,
		ActionType: model.InteractionContentSuggests,
		Query:      topic,
		Details:    map[string]string{"count": fmt.Sprint(len(suggestions))},
	})
	return &SuggestionsResult{Suggestions: suggestions, Receipt: receipt}, nil
}

// SectionSuggestions scores the topic's sentiment and asks for ideas focused on a section.
func (s *SuggestionService) SectionSuggestions(ctx context.Context, acct model.Account, topic, section string) (*SectionSuggestions, error) {
	topic, section = strings.TrimSpace(topic), strings.TrimSpace(section)
	if topic == "" || section == "" {
		return nil, fmt.Errorf("%w: topic and section are required", ErrValidation)
	}

	var out SectionSuggestions
	_, err := s.meter.Charge(ctx, acct, ActionSectionSuggestions, func(ctx context.Context) (model.Usage, error) {
		sentiment, err := s.sentiment.ClassifySentiment(ctx, topic)
		if err != nil {
			return model.Usage{}, err
		}
		ideas, err := s.generate(ctx, suggestionPrompt+sectionFocus[section], topic)
		if err != nil {
			return model.Usage{}, err
		}
		out = SectionSuggestions{Sentiment: sentiment, Suggestions: ideas}
		return model.Usage{}, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Sentiment classifies text.
func (s *SuggestionService) Sentiment(ctx context.Context, acct model.Account, text string) (provider.Sentiment, error) {
	if strings.TrimSpace(text) == "" {
		return provider.Sentiment{}, fmt.Errorf("%w: text is required", ErrValidation)
	}
	var out provider.Sentiment
	_, err := s.meter.Charge(ctx, acct, ActionSentiment, func(ctx context.Context) (model.Usage, error) {
		var err error
		out, err = s.sentiment.ClassifySentiment(ctx, text)
		return model.Usage{}, err
	})
	return out, err
}

// generateWithRetry retries transient failures with a fixed delay.
func (s *SuggestionService) generateWithRetry(ctx context.Context, system, topic string) ([]string, error) {
	var lastErr error
	for attempt := 1; attempt <= s.retry.Attempts; attempt++ {
		ideas, err := s.generate(ctx, system, topic)
		if err == nil {
			return ideas, nil
		}
		lastErr = err
		if !provider.IsTransient(err) || attempt == s.retry.Attempts {
			break
		}
		s.logger.Warn().Err(err).Int("attempt", attempt).Msg("Transient failure generating suggestions, retrying")
		timer := time.NewTimer(s.retry.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

func (s *SuggestionService) generate(ctx context.Context, system, topic string) ([]string, error) {
	reply, err := s.chat.Chat(ctx, provider.DefaultOpenAIModel, []provider.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: "Generate 4 unique content ideas related to: " + topic},
	}, nil)
	if err != nil {
		return nil, err
	}
	ideas := splitSuggestions(reply)
	if len(ideas) == 0 {
		return nil, fmt.Errorf("openai: no suggestions in reply: %w", provider.ErrUpstream)
	}
	return ideas, nil
}

// splitSuggestions keeps the first four non-empty lines, each cut to 100 runes.
func splitSuggestions(reply string) []string {
	var out []string
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, truncateRunes(line, suggestionMaxRunes))
		if len(out) == suggestionCount {
			break
		}
	}
	return out
}

// withMetrics scores every idea concurrently. A failed classification falls back to the default
// sentiment.
func (s *SuggestionService) withMetrics(ctx context.Context, ideas []string) []Suggestion {
	out := make([]Suggestion, len(ideas))
	var wg sync.WaitGroup
	for i, idea := range ideas {
		wg.Add(1)
		go func(i int, idea string) {
			defer wg.Done()
			sentiment, err := s.sentiment.ClassifySentiment(ctx, idea)
			if err != nil {
				s.logger.Warn().Err(err).Msg("Failed to analyze sentiment, using defaults")
				sentiment = provider.DefaultSentiment
			}
			out[i] = Suggestion{Suggestion: idea, Metrics: estimateMetrics(sentiment, len(ideas))}
		}(i, idea)
	}
	wg.Wait()
	return out
}

func estimateMetrics(sentiment provider.Sentiment, n int) Metrics {
	perf := Performance{
		Views:              historicalAverages.Views * n,
		Likes:              historicalAverages.Likes * n,
		Shares:             historicalAverages.Shares * n,
		EngagementRate:     sentiment.PositiveRatio * 100 / float64(n),
		ConversionRate:     sentiment.PositiveRatio,
		AverageTimeSpent:   historicalAverages.TimeSpent,
		LongTermEngagement: historicalAverages.LongTermEngagement,
	}
	return Metrics{
		Views:  perf.Views,
		Likes:  perf.Likes,
		Shares: perf.Shares,
		Demographics: Demographics{
			AgeGroups: map[string]int{},
			Geography: map[string]int{},
			Interests: []string{},
		},
		Sentiment:   sentiment,
		Performance: perf,
	}
}
