package mongostore

import (
	"context"
	"errors"
	"os"
	"testing"

	"creatorhub/internal/model"
	"creatorhub/internal/repository"
	"creatorhub/internal/repository/repotest"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func TestContract(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI is not set, skip MongoDB integration test")
	}
	ctx := context.Background()
	s, err := New(ctx, uri, "creatorhub_test_"+uuid.NewString()[:8], zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Drop(context.Background())
		_ = s.Close()
	})

	store := repository.NewStore(s, s, s, s, nil)
	repotest.Run(t, func(t *testing.T) *repository.Store { return store })
}

func TestWrapError(t *testing.T) {
	assert.Nil(t, wrapError(nil))
	assert.True(t, errors.Is(wrapError(mongo.ErrNoDocuments), repository.ErrNotFound))

	other := errors.New("boom")
	assert.Equal(t, other, wrapError(other))
}

func TestPushUsageSkipsEmptyBatches(t *testing.T) {
	assert.Empty(t, pushUsage(model.Usage{}))

	push := pushUsage(model.Usage{Hashtags: []model.Hashtag{{ID: "a", Tag: "#a"}, {ID: "b", Tag: "#b"}}})
	require.Len(t, push, 1)
	assert.Equal(t, "hashtags", push[0].Key)
}
