package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creatorhub/internal/provider"
)

func TestHashtagGenerate(t *testing.T) {
	env := newTestEnv(t, 10)
	serp := &fakeSearcher{resp: &provider.SearchResponse{RelatedSearches: []provider.RelatedSearch{
		{Query: "go generics tutorial"},
		{Query: "golang  tips"},
	}}}
	svc := NewHashtagService(env.meter, serp, zerolog.Nop())
	svc.intN = func(n int) int { return n - 1 }

	res, err := svc.Generate(context.Background(), env.acct, "  golang ")
	require.NoError(t, err)
	assert.Equal(t, []string{"golang"}, serp.queries)

	require.Len(t, res.Hashtags, 2)
	assert.Equal(t, "#gogenericstutorial", res.Hashtags[0].Tag)
	assert.Equal(t, "#golangtips", res.Hashtags[1].Tag)
	assert.Equal(t, 100, res.Hashtags[0].Score)
	assert.Equal(t, 800000, res.Hashtags[0].Volume)
	require.Len(t, res.Hashtags[0].Trend, 5)
	assert.Equal(t, TrendPoint{Day: 5, Value: 100}, res.Hashtags[0].Trend[4])
	assert.Equal(t, 9, res.Receipt.Balance)

	u := env.user(t)
	assert.Equal(t, 9, u.Credits)
	require.Len(t, u.Hashtags, 2)
	assert.Equal(t, "#golangtips", u.Hashtags[1].Tag)
}

func TestHashtagGenerate_EmptyRelatedSearchesIsOK(t *testing.T) {
	env := newTestEnv(t, 10)
	serp := &fakeSearcher{resp: &provider.SearchResponse{RelatedSearches: []provider.RelatedSearch{}}}
	svc := NewHashtagService(env.meter, serp, zerolog.Nop())

	res, err := svc.Generate(context.Background(), env.acct, "nothing")
	require.NoError(t, err)
	assert.Empty(t, res.Hashtags)
	assert.Equal(t, 9, env.user(t).Credits)
}

func TestHashtagGenerate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		credits int
		topic   string
		serp    *fakeSearcher
		wantErr error
		calls   int
	}{
		{
			name:    "blank topic",
			credits: 10,
			topic:   "  ",
			serp:    &fakeSearcher{},
			wantErr: ErrValidation,
		},
		{
			name:    "no credits",
			credits: 0,
			topic:   "go",
			serp:    &fakeSearcher{},
			wantErr: ErrInsufficientCredits,
		},
		{
			name:    "upstream error",
			credits: 10,
			topic:   "go",
			serp:    &fakeSearcher{err: upstreamErr(http.StatusInternalServerError)},
			wantErr: provider.ErrUpstream,
			calls:   1,
		},
		{
			name:    "missing related searches",
			credits: 10,
			topic:   "go",
			serp:    &fakeSearcher{resp: &provider.SearchResponse{}},
			wantErr: provider.ErrUpstream,
			calls:   1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.credits)
			svc := NewHashtagService(env.meter, tt.serp, zerolog.Nop())

			_, err := svc.Generate(context.Background(), env.acct, tt.topic)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Len(t, tt.serp.queries, tt.calls)

			u := env.user(t)
			assert.Equal(t, tt.credits, u.Credits)
			assert.Empty(t, u.Hashtags)
		})
	}
}

func TestHashtagTrending(t *testing.T) {
	env := newTestEnv(t, 10)
	organic := make([]provider.OrganicResult, 7)
	for i := range organic {
		organic[i] = provider.OrganicResult{Title: "Trend " + string(rune('A'+i))}
	}
	serp := &fakeSearcher{resp: &provider.SearchResponse{OrganicResults: organic}}
	svc := NewHashtagService(env.meter, serp, zerolog.Nop())
	svc.intN = func(int) int { return 0 }

	res, err := svc.Trending(context.Background(), env.acct)
	require.NoError(t, err)
	assert.Equal(t, []string{"trending hashtags"}, serp.queries)
	require.Len(t, res.Hashtags, 5)
	assert.Equal(t, "#TrendA", res.Hashtags[0].Tag)
	assert.Equal(t, "#TrendE", res.Hashtags[4].Tag)
	assert.Equal(t, 7, res.Receipt.Balance)
	assert.Len(t, env.user(t).Hashtags, 5)
}

func TestHashtagTrending_NeedsThreeCredits(t *testing.T) {
	env := newTestEnv(t, 2)
	serp := &fakeSearcher{}
	svc := NewHashtagService(env.meter, serp, zerolog.Nop())

	_, err := svc.Trending(context.Background(), env.acct)
	require.ErrorIs(t, err, ErrInsufficientCredits)
	assert.Empty(t, serp.queries)
	assert.Equal(t, 2, env.user(t).Credits)
}
