package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"creatorhub/internal/model"
	"creatorhub/internal/provider"
)

const (
	trendingQuery = "trending hashtags"
	trendingLimit = 5
	trendDays     = 5
)

// TrendPoint is one day of a hashtag's trend line.
type TrendPoint struct {
	Day   int `json:"day"`
	Value int `json:"value"`
}

// GeneratedHashtag is a hashtag with its engagement estimates.
type GeneratedHashtag struct {
	Tag    string       `json:"tag"`
	Score  int          `json:"score"`
	Volume int          `json:"volume"`
	Trend  []TrendPoint `json:"trend"`
}

// HashtagResult is the outcome of a hashtag generation.
type HashtagResult struct {
	Hashtags []GeneratedHashtag
	Receipt  Receipt
}

// HashtagService derives hashtags from search data.
type HashtagService struct {
	meter  *Meter
	serp   Searcher
	intN   func(n int) int
	now    func() time.Time
	logger zerolog.Logger
}

// NewHashtagService creates a HashtagService with a scoped logger.
func NewHashtagService(meter *Meter, serp Searcher, logger zerolog.Logger) *HashtagService {
	return &HashtagService{
		meter:  meter,
		serp:   serp,
		intN:   rand.IntN,
		now:    time.Now,
		logger: logger.With().Str("service", "HashtagService").Logger(),
	}
}

// Generate turns the related searches for topic into hashtags.
func (s *HashtagService) Generate(ctx context.Context, acct model.Account, topic string) (*HashtagResult, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("%w: topic is required", ErrValidation)
	}

	var tags []GeneratedHashtag
	receipt, err := s.meter.Charge(ctx, acct, ActionGenerateHashtags, func(ctx context.Context) (model.Usage, error) {
		resp, err := s.serp.Search(ctx, topic, "")
		if err != nil {
			return model.Usage{}, err
		}
		if resp.RelatedSearches == nil {
			return model.Usage{}, fmt.Errorf("serpapi: response has no related searches: %w", provider.ErrUpstream)
		}
		tags = make([]GeneratedHashtag, 0, len(resp.RelatedSearches))
		for _, rs := range resp.RelatedSearches {
			tags = append(tags, GeneratedHashtag{
				Tag:    toHashtag(rs.Query),
				Score:  75 + s.intN(26),
				Volume: 300000 + s.intN(500001),
				Trend:  s.trend(75, 26),
			})
		}
		return model.Usage{Hashtags: s.hashtagRecords(tags)}, nil
	})
	if err != nil {
		return nil, err
	}
	return &HashtagResult{Hashtags: tags, Receipt: receipt}, nil
}

// Trending returns hashtags built from the top results for a trending-hashtags search.
func (s *HashtagService) Trending(ctx context.Context, acct model.Account) (*HashtagResult, error) {
	var tags []GeneratedHashtag
	receipt, err := s.meter.Charge(ctx, acct, ActionTrendingHashtags, func(ctx context.Context) (model.Usage, error) {
		resp, err := s.serp.Search(ctx, trendingQuery, "")
		if err != nil {
			return model.Usage{}, err
		}
		if resp.OrganicResults == nil {
			return model.Usage{}, fmt.Errorf("serpapi: response has no organic results: %w", provider.ErrUpstream)
		}
		results := resp.OrganicResults
		if len(results) > trendingLimit {
			results = results[:trendingLimit]
		}
		tags = make([]GeneratedHashtag, 0, len(results))
		for _, r := range results {
			tags = append(tags, GeneratedHashtag{
				Tag:    toHashtag(r.Title),
				Score:  s.intN(101),
				Volume: s.intN(10001),
				Trend:  s.trend(0, 101),
			})
		}
		return model.Usage{Hashtags: s.hashtagRecords(tags)}, nil
	})
	if err != nil {
		return nil, err
	}
	return &HashtagResult{Hashtags: tags, Receipt: receipt}, nil
}

func (s *HashtagService) trend(base, spread int) []TrendPoint {
	points := make([]TrendPoint, trendDays)
	for i := range points {
		points[i] = TrendPoint{Day: i + 1, Value: base + s.intN(spread)}
	}
	return points
}

func (s *HashtagService) hashtagRecords(tags []GeneratedHashtag) []model.Hashtag {
	now := s.now().UTC()
	records := make([]model.Hashtag, len(tags))
	for i, t := range tags {
		records[i] = model.Hashtag{ID: uuid.NewString(), Tag: t.Tag, CreatedAt: now}
	}
	return records
}

// toHashtag prefixes # and removes all whitespace.
func toHashtag(s string) string {
	return "#" + stripSpaces(s)
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}
