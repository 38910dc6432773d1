package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creatorhub/internal/model"
	"creatorhub/internal/provider"
)

const fourIdeas = "1. Idea one\n\n2. Idea two\n3. Idea three\n4. Idea four\n5. Idea five"

func newSuggestionService(env *testEnv, chat *fakeChat, sentiment *fakeSentiment, attempts int) *SuggestionService {
	return NewSuggestionService(env.meter, chat, sentiment, env.telemetry,
		RetryPolicy{Attempts: attempts, Delay: time.Millisecond}, zerolog.Nop())
}

func TestContentSuggestions(t *testing.T) {
	env := newTestEnv(t, 5)
	chat := &fakeChat{replies: []string{fourIdeas}}
	sentiment := &fakeSentiment{result: provider.Sentiment{PositiveRatio: 0.8, SentimentScore: 0.6, CommentCount: 1}}
	svc := newSuggestionService(env, chat, sentiment, 3)

	res, err := svc.ContentSuggestions(context.Background(), env.acct, "home workouts")
	require.NoError(t, err)
	require.Len(t, res.Suggestions, 4)
	assert.Equal(t, "1. Idea one", res.Suggestions[0].Suggestion)
	assert.Equal(t, "4. Idea four", res.Suggestions[3].Suggestion)

	m := res.Suggestions[0].Metrics
	assert.Equal(t, 600, m.Views)
	assert.Equal(t, 120, m.Likes)
	assert.Equal(t, 40, m.Shares)
	assert.InDelta(t, 20.0, m.Performance.EngagementRate, 0.0001)
	assert.InDelta(t, 0.8, m.Performance.ConversionRate, 0.0001)
	assert.Equal(t, 7, m.Performance.AverageTimeSpent)
	assert.Equal(t, 0.8, m.Sentiment.PositiveRatio)
	assert.Len(t, sentiment.texts, 4)

	require.Len(t, chat.calls, 1)
	assert.Equal(t, provider.DefaultOpenAIModel, chat.calls[0].model)
	assert.Contains(t, chat.calls[0].messages[1].Content, "home workouts")

	assert.Equal(t, 4, res.Receipt.Balance)
	assert.Equal(t, 4, env.user(t).Credits)
	require.Len(t, env.store.TrainingData(), 1)
	assert.Equal(t, model.SourceContentSuggestion, env.store.TrainingData()[0].Source)
	require.Len(t, env.store.Interactions(), 1)
	assert.Equal(t, model.InteractionContentSuggests, env.store.Interactions()[0].ActionType)
}

func TestContentSuggestions_SentimentFailureUsesDefaults(t *testing.T) {
	env := newTestEnv(t, 5)
	svc := newSuggestionService(env, &fakeChat{replies: []string{fourIdeas}}, &fakeSentiment{err: errors.New("hf down")}, 1)

	res, err := svc.ContentSuggestions(context.Background(), env.acct, "cooking")
	require.NoError(t, err)
	for _, s := range res.Suggestions {
		assert.Equal(t, provider.DefaultSentiment, s.Metrics.Sentiment)
	}
	assert.Equal(t, 4, env.user(t).Credits)
}

func TestContentSuggestions_RetriesTransientFailures(t *testing.T) {
	env := newTestEnv(t, 5)
	chat := &fakeChat{
		errs:    []error{upstreamErr(http.StatusServiceUnavailable), upstreamErr(http.StatusTooManyRequests)},
		replies: []string{"", "", fourIdeas},
	}
	svc := newSuggestionService(env, chat, &fakeSentiment{}, 3)

	res, err := svc.ContentSuggestions(context.Background(), env.acct, "travel")
	require.NoError(t, err)
	assert.Len(t, chat.calls, 3)
	assert.Len(t, res.Suggestions, 4)
	assert.Equal(t, 4, env.user(t).Credits)
}

func TestContentSuggestions_GivesUpAfterAttempts(t *testing.T) {
	env := newTestEnv(t, 5)
	transient := upstreamErr(http.StatusBadGateway)
	chat := &fakeChat{errs: []error{transient, transient, transient, transient}}
	svc := newSuggestionService(env, chat, &fakeSentiment{}, 3)

	_, err := svc.ContentSuggestions(context.Background(), env.acct, "travel")
	require.ErrorIs(t, err, provider.ErrUpstream)
	assert.Len(t, chat.calls, 3)
	assert.Equal(t, 5, env.user(t).Credits)
	assert.Empty(t, env.store.TrainingData())
}

func TestContentSuggestions_NoRetryOnClientError(t *testing.T) {
	env := newTestEnv(t, 5)
	chat := &fakeChat{errs: []error{upstreamErr(http.StatusBadRequest)}}
	svc := newSuggestionService(env, chat, &fakeSentiment{}, 3)

	_, err := svc.ContentSuggestions(context.Background(), env.acct, "travel")
	require.ErrorIs(t, err, provider.ErrUpstream)
	assert.Len(t, chat.calls, 1)
	assert.Equal(t, 5, env.user(t).Credits)
}

func TestContentSuggestions_EmptyReplyIsUpstreamFailure(t *testing.T) {
	env := newTestEnv(t, 5)
	svc := newSuggestionService(env, &fakeChat{replies: []string{"\n \n"}}, &fakeSentiment{}, 1)

	_, err := svc.ContentSuggestions(context.Background(), env.acct, "travel")
	require.ErrorIs(t, err, provider.ErrUpstream)
	assert.Equal(t, 5, env.user(t).Credits)
}

func TestContentSuggestions_Validation(t *testing.T) {
	env := newTestEnv(t, 5)
	chat := &fakeChat{}
	svc := newSuggestionService(env, chat, &fakeSentiment{}, 1)

	_, err := svc.ContentSuggestions(context.Background(), env.acct, "   ")
	require.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, chat.calls)
}

func TestContentSuggestions_TruncatesTopic(t *testing.T) {
	env := newTestEnv(t, 5)
	chat := &fakeChat{replies: []string{fourIdeas}}
	svc := newSuggestionService(env, chat, &fakeSentiment{}, 1)

	_, err := svc.ContentSuggestions(context.Background(), env.acct, strings.Repeat("x", 150))
	require.NoError(t, err)
	assert.NotContains(t, chat.calls[0].messages[1].Content, strings.Repeat("x", 101))
	assert.Contains(t, chat.calls[0].messages[1].Content, strings.Repeat("x", 100))
}

func TestSectionSuggestions(t *testing.T) {
	env := newTestEnv(t, 0)
	chat := &fakeChat{replies: []string{fourIdeas}}
	sentiment := &fakeSentiment{result: provider.Sentiment{PositiveRatio: 1, SentimentScore: 1, CommentCount: 1}}
	svc := newSuggestionService(env, chat, sentiment, 1)

	res, err := svc.SectionSuggestions(context.Background(), env.acct, "markets", "Financial Trends & Advice")
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Sentiment.PositiveRatio)
	assert.Len(t, res.Suggestions, 4)
	assert.Contains(t, chat.calls[0].messages[0].Content, "market analysis")
	assert.Equal(t, 0, env.user(t).Credits)
}

func TestSectionSuggestions_SentimentFailureFails(t *testing.T) {
	env := newTestEnv(t, 0)
	chat := &fakeChat{replies: []string{fourIdeas}}
	svc := newSuggestionService(env, chat, &fakeSentiment{err: upstreamErr(http.StatusInternalServerError)}, 1)

	_, err := svc.SectionSuggestions(context.Background(), env.acct, "markets", "Social Media Trends")
	require.ErrorIs(t, err, provider.ErrUpstream)
	assert.Empty(t, chat.calls)
}

func TestSentiment(t *testing.T) {
	env := newTestEnv(t, 0)
	sentiment := &fakeSentiment{result: provider.Sentiment{PositiveRatio: 0.25, SentimentScore: -0.5, CommentCount: 1}}
	svc := newSuggestionService(env, &fakeChat{}, sentiment, 1)

	got, err := svc.Sentiment(context.Background(), env.acct, "meh")
	require.NoError(t, err)
	assert.Equal(t, -0.5, got.SentimentScore)

	_, err = svc.Sentiment(context.Background(), env.acct, " ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSplitSuggestions(t *testing.T) {
	long := strings.Repeat("é", 120)
	got := splitSuggestions("\n" + long + "\n\nb\n")
	require.Len(t, got, 2)
	assert.Equal(t, strings.Repeat("é", 100), got[0])
	assert.Equal(t, "b", got[1])
}
