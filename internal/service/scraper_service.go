package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"creatorhub/internal/model"
	"creatorhub/internal/provider"
)

const (
	defaultSearchEngine = "google"
	chartPoints         = 5
	chartLabelRunes     = 20
	topTrendsLimit      = 5
)

// SearchResult is one organic result with engagement estimates.
type SearchResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Views   int    `json:"views"`
	Likes   int    `json:"likes"`
	Shares  int    `json:"shares"`
}

// ChartPoint is a bar of the engagement chart.
type ChartPoint struct {
	Content string `json:"content"`
	Views   int    `json:"views"`
	Likes   int    `json:"likes"`
	Shares  int    `json:"shares"`
}

// ScrapeResult is the analytics view of one web search.
type ScrapeResult struct {
	SearchResults       []SearchResult `json:"searchResults"`
	ChartData           []ChartPoint   `json:"chartData"`
	SocialMediaMentions int            `json:"socialMediaMentions"`
	TopTrends           []string       `json:"topTrends"`
	PostCount           int            `json:"postCount"`
	Receipt             Receipt        `json:"-"`
}

// ScraperService runs web searches and derives engagement analytics.
type ScraperService struct {
	meter     *Meter
	serp      Searcher
	telemetry *TelemetryService
	intN      func(n int) int
	now       func() time.Time
	logger    zerolog.Logger
}

func NewScraperService(meter *Meter, serp Searcher, telemetry *TelemetryService, logger zerolog.Logger) *ScraperService {
	return &ScraperService{
		meter:     meter,
		serp:      serp,
		telemetry: telemetry,
		intN:      rand.IntN,
		now:       time.Now,
		logger:    logger.With().Str("service", "ScraperService").Logger(),
	}
}

// Search queries the engine (google by default) and records the results in the scrape history.
func (s *ScraperService) Search(ctx context.Context, acct model.Account, query, engine string) (*ScrapeResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", ErrValidation)
	}
	engine = strings.TrimSpace(engine)
	if engine == "" {
		engine = defaultSearchEngine
	}

	var result *ScrapeResult
	receipt, err := s.meter.Charge(ctx, acct, ActionWebScrape, func(ctx context.Context) (model.Usage, error) {
		resp, err := s.serp.Search(ctx, query, engine)
		if err != nil {
			return model.Usage{}, err
		}
		if resp.OrganicResults == nil {
			return model.Usage{}, fmt.Errorf("serpapi: response has no organic results: %w", provider.ErrUpstream)
		}
		result = s.analyze(resp)

		content, err := json.Marshal(result.SearchResults)
		if err != nil {
			return model.Usage{}, fmt.Errorf("encode scrape record: %w", err)
		}
		return model.Usage{ScrapeHistory: []model.ScrapeRecord{{
			ID:        uuid.NewString(),
			TaskType:  engine,
			Content:   string(content),
			CreatedAt: s.now().UTC(),
		}}}, nil
	})
	if err != nil {
		return nil, err
	}
	result.Receipt = receipt

	s.recordTrainingData(ctx, acct.UserID, query, result)
	s.telemetry.RecordInteraction(ctx, model.UserInteraction{
		UserID:     acct.UserID,
		ActionType: model.InteractionSearch,
		Query:      NormalizeQuery(query),
		Details:    map[string]string{"engine": engine, "results": fmt.Sprint(result.PostCount)},
	})
	return result, nil
}

func (s *ScraperService) analyze(resp *provider.SearchResponse) *ScrapeResult {
	results := make([]SearchResult, 0, len(resp.OrganicResults))
	mentions := 0
	for _, r := range resp.OrganicResults {
		sr := SearchResult{
			Title:   r.Title,
			Link:    r.Link,
			Snippet: r.Snippet,
			Views:   s.intN(1000),
			Likes:   s.intN(500),
			Shares:  s.intN(200),
		}
		mentions += sr.Shares
		results = append(results, sr)
	}

	chart := make([]ChartPoint, 0, chartPoints)
	for i := 0; i < len(results) && i < chartPoints; i++ {
		r := results[i]
		chart = append(chart, ChartPoint{Content: truncateRunes(r.Title, chartLabelRunes), Views: r.Views, Likes: r.Likes, Shares: r.Shares})
	}

	trends := make([]string, 0, topTrendsLimit)
	for _, rs := range resp.RelatedSearches {
		if len(trends) == topTrendsLimit {
			break
		}
		if q := strings.TrimSpace(rs.Query); q != "" {
			trends = append(trends, q)
		}
	}

	return &ScrapeResult{
		SearchResults:       results,
		ChartData:           chart,
		SocialMediaMentions: mentions,
		TopTrends:           trends,
		PostCount:           len(results),
	}
}

func (s *ScraperService) recordTrainingData(ctx context.Context, userID, query string, result *ScrapeResult) {
	var engagement model.EngagementMetrics
	for _, r := range result.SearchResults {
		engagement.Views += r.Views
		engagement.Likes += r.Likes
		engagement.Shares += r.Shares
	}
	text, _ := json.Marshal(result.SearchResults)
	d := model.TrainingData{
		UserID:            userID,
		Source:            model.SourceSerpAPI,
		TextContent:       string(text),
		Hashtags:          []string{},
		Hooks:             []string{query},
		EngagementMetrics: engagement,
		Category:          "search",
		AILabels:          result.TopTrends,
	}
	if len(result.SearchResults) > 0 {
		d.URL = result.SearchResults[0].Link
	}
	s.telemetry.RecordTrainingData(ctx, d)
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
