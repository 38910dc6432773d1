package service

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creatorhub/internal/model"
	"creatorhub/internal/provider"
)

func TestScraperSearch(t *testing.T) {
	env := newTestEnv(t, 3)
	organic := []provider.OrganicResult{
		{Title: "A very long result title that needs truncation", Link: "https://a.example.com", Snippet: "a"},
		{Title: "Short", Link: "https://b.example.com", Snippet: "b"},
	}
	related := []provider.RelatedSearch{{Query: "one"}, {Query: " "}, {Query: "two"}, {Query: "three"}, {Query: "four"}, {Query: "five"}, {Query: "six"}}
	serp := &fakeSearcher{resp: &provider.SearchResponse{OrganicResults: organic, RelatedSearches: related}}
	svc := NewScraperService(env.meter, serp, env.telemetry, zerolog.Nop())
	svc.intN = func(n int) int { return n / 10 }

	res, err := svc.Search(context.Background(), env.acct, "Golang!", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"google"}, serp.engines)

	require.Len(t, res.SearchResults, 2)
	assert.Equal(t, SearchResult{Title: "Short", Link: "https://b.example.com", Snippet: "b", Views: 100, Likes: 50, Shares: 20}, res.SearchResults[1])
	require.Len(t, res.ChartData, 2)
	assert.Equal(t, "A very long result t", res.ChartData[0].Content)
	assert.Equal(t, 40, res.SocialMediaMentions)
	assert.Equal(t, []string{"one", "two", "three", "four", "five"}, res.TopTrends)
	assert.Equal(t, 2, res.PostCount)
	assert.Equal(t, 2, res.Receipt.Balance)

	u := env.user(t)
	assert.Equal(t, 2, u.Credits)
	assert.Equal(t, 1, u.TotalScrapes)
	require.Len(t, u.ScrapeHistory, 1)
	assert.Equal(t, "google", u.ScrapeHistory[0].TaskType)
	var stored []SearchResult
	require.NoError(t, json.Unmarshal([]byte(u.ScrapeHistory[0].Content), &stored))
	assert.Equal(t, res.SearchResults, stored)

	training := env.store.TrainingData()
	require.Len(t, training, 1)
	assert.Equal(t, model.SourceSerpAPI, training[0].Source)
	assert.Equal(t, "https://a.example.com", training[0].URL)
	assert.Equal(t, []string{"Golang!"}, training[0].Hooks)
	assert.Equal(t, 200, training[0].EngagementMetrics.Views)

	interactions := env.store.Interactions()
	require.Len(t, interactions, 1)
	assert.Equal(t, model.InteractionSearch, interactions[0].ActionType)
	assert.Equal(t, "golang", interactions[0].Query)
}

func TestScraperSearch_ChartCapsAtFive(t *testing.T) {
	env := newTestEnv(t, 3)
	organic := make([]provider.OrganicResult, 8)
	for i := range organic {
		organic[i] = provider.OrganicResult{Title: "r"}
	}
	svc := NewScraperService(env.meter, &fakeSearcher{resp: &provider.SearchResponse{OrganicResults: organic}}, nil, zerolog.Nop())

	res, err := svc.Search(context.Background(), env.acct, "go", "bing")
	require.NoError(t, err)
	assert.Len(t, res.SearchResults, 8)
	assert.Len(t, res.ChartData, 5)
	assert.Empty(t, res.TopTrends)
	assert.Equal(t, "bing", env.user(t).ScrapeHistory[0].TaskType)
}

func TestScraperSearch_Failures(t *testing.T) {
	tests := []struct {
		name    string
		credits int
		query   string
		serp    *fakeSearcher
		wantErr error
	}{
		{name: "blank query", credits: 3, query: "", serp: &fakeSearcher{}, wantErr: ErrValidation},
		{name: "no credits", credits: 0, query: "go", serp: &fakeSearcher{}, wantErr: ErrInsufficientCredits},
		{name: "upstream", credits: 3, query: "go", serp: &fakeSearcher{err: upstreamErr(http.StatusBadGateway)}, wantErr: provider.ErrUpstream},
		{name: "no organic results", credits: 3, query: "go", serp: &fakeSearcher{resp: &provider.SearchResponse{}}, wantErr: provider.ErrUpstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.credits)
			svc := NewScraperService(env.meter, tt.serp, env.telemetry, zerolog.Nop())

			_, err := svc.Search(context.Background(), env.acct, tt.query, "")
			require.ErrorIs(t, err, tt.wantErr)
			u := env.user(t)
			assert.Equal(t, tt.credits, u.Credits)
			assert.Empty(t, u.ScrapeHistory)
			assert.Empty(t, env.store.TrainingData())
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héll", truncateRunes("héllo", 4))
	assert.Equal(t, "abc", truncateRunes("abc", 20))
}
