package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creatorhub/internal/catalog"
	"creatorhub/internal/model"
	"creatorhub/internal/provider"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]catalog.Template{
		{
			ID:          "blog-title",
			Title:       "Blog Titles",
			Description: "Catchy blog titles",
			Command:     "Write blog titles",
			Categories:  []string{"Blog"},
			Inputs:      []catalog.Input{{ID: "topic", Label: "Topic", Type: "text"}, {ID: "tone", Label: "Tone", Type: "text"}},
		},
	})
	require.NoError(t, err)
	return cat
}

func TestTemplateGenerate(t *testing.T) {
	env := newTestEnv(t, 0)
	chat := &fakeChat{replies: []string{"1. a\n2. b\n3. c"}}
	svc := NewTemplateService(env.meter, chat, testCatalog(t), env.store, env.telemetry, zerolog.Nop())

	out, err := svc.Generate(context.Background(), env.acct, catalog.Template{ID: "blog-title"},
		map[string]string{"topic": "Go", "tone": "fun"}, "gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, "1. a\n2. b\n3. c", out)

	require.Len(t, chat.calls, 1)
	call := chat.calls[0]
	assert.Equal(t, "gpt-4o", call.model)
	require.NotNil(t, call.temperature)
	assert.Equal(t, 1.0, *call.temperature)
	assert.Equal(t, []provider.Message{
		{Role: "system", Content: "You are a helpful assistant."},
		{Role: "user", Content: "Your task is: \"Write blog titles\".\n\nHere are the details:\nTopic: Go\nTone: fun. Please suggest 3 outputs. number them 1,2,3"},
	}, call.messages)
	assert.Equal(t, 0, env.user(t).Credits, "generation is free")
}

func TestTemplateGenerate_RequiresCommand(t *testing.T) {
	env := newTestEnv(t, 0)
	chat := &fakeChat{}
	svc := NewTemplateService(env.meter, chat, testCatalog(t), env.store, env.telemetry, zerolog.Nop())

	_, err := svc.Generate(context.Background(), env.acct, catalog.Template{ID: "unknown"}, nil, "gpt-4o")
	require.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, chat.calls)
}

func TestTemplateLogRecentDelete(t *testing.T) {
	env := newTestEnv(t, 2)
	svc := NewTemplateService(env.meter, &fakeChat{}, testCatalog(t), env.store, env.telemetry, zerolog.Nop())
	ctx := context.Background()

	clock := testNow
	svc.now = func() time.Time { clock = clock.Add(time.Minute); return clock }

	receipt, err := svc.Log(ctx, env.acct, "blog-title", "first")
	require.NoError(t, err)
	assert.Equal(t, 1, receipt.Balance)
	acct := env.acct
	acct.Credits = receipt.Balance
	_, err = svc.Log(ctx, acct, "retired-template", "second")
	require.NoError(t, err)

	acct.Credits = 0
	_, err = svc.Log(ctx, acct, "blog-title", "third")
	require.ErrorIs(t, err, ErrInsufficientCredits)

	recent, err := svc.Recent(ctx, env.acct.UserID)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "second", recent[0].Content)
	assert.Equal(t, "Unknown Title", recent[0].Title)
	assert.Equal(t, "No description available", recent[0].Description)
	assert.Equal(t, "first", recent[1].Content)
	assert.Equal(t, "Blog Titles", recent[1].Title)
	assert.Equal(t, []string{"Blog"}, recent[1].Categories)
	assert.Len(t, recent[1].Inputs, 2)

	interactions := env.store.Interactions()
	require.Len(t, interactions, 2)
	assert.Equal(t, model.InteractionTemplateUsage, interactions[0].ActionType)

	require.NoError(t, svc.Delete(ctx, env.acct.UserID, recent[0].ID))
	assert.ErrorIs(t, svc.Delete(ctx, env.acct.UserID, recent[0].ID), ErrUserNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, env.acct.UserID, ""), ErrValidation)

	recent, err = svc.Recent(ctx, env.acct.UserID)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "first", recent[0].Content)
	assert.Equal(t, 0, env.user(t).Credits)
}

func TestTemplateLog_Validation(t *testing.T) {
	env := newTestEnv(t, 2)
	svc := NewTemplateService(env.meter, &fakeChat{}, testCatalog(t), env.store, env.telemetry, zerolog.Nop())

	_, err := svc.Log(context.Background(), env.acct, "blog-title", "  ")
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 2, env.user(t).Credits)
}

func TestTemplateRecent_CapsAtTwenty(t *testing.T) {
	env := newTestEnv(t, 30)
	svc := NewTemplateService(env.meter, &fakeChat{}, testCatalog(t), env.store, env.telemetry, zerolog.Nop())
	ctx := context.Background()
	acct := env.acct
	for i := 0; i < 25; i++ {
		r, err := svc.Log(ctx, acct, "blog-title", "content")
		require.NoError(t, err)
		acct.Credits = r.Balance
	}
	recent, err := svc.Recent(ctx, acct.UserID)
	require.NoError(t, err)
	assert.Len(t, recent, 20)
	assert.Equal(t, 5, env.user(t).Credits)
}

func TestTemplateDashboard(t *testing.T) {
	env := newTestEnv(t, 0)
	svc := NewTemplateService(env.meter, &fakeChat{}, testCatalog(t), env.store, env.telemetry, zerolog.Nop())
	stats := svc.Dashboard()
	assert.Equal(t, 1, stats.TotalTemplates)
	assert.Equal(t, map[string]int{"Blog": 1}, stats.CategoryCounts)
}
