package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creatorhub/internal/provider"
)

func TestThumbnailGenerate(t *testing.T) {
	env := newTestEnv(t, 2)
	images := &fakeImages{img: []byte{0x89, 0x50, 0x4e, 0x47}, contentType: "image/png"}
	svc := NewThumbnailService(env.meter, images, nil, zerolog.Nop())

	res, err := svc.Generate(context.Background(), env.acct, "sunset over mountains", "stable-diffusion-xl")
	require.NoError(t, err)
	assert.Equal(t, []string{"stabilityai/stable-diffusion-xl-base-1.0"}, images.repos)
	assert.Equal(t, "data:image/png;base64,iVBORw==", res.ImageURL)
	assert.Equal(t, 1, res.Receipt.Balance)

	u := env.user(t)
	assert.Equal(t, 1, u.Credits)
	require.Len(t, u.Thumbnails, 1)
	assert.Equal(t, res.ImageURL, u.Thumbnails[0].URL)
	require.Len(t, u.Hashtags, 1)
	assert.Equal(t, "sunsetovermountains", u.Hashtags[0].Tag)
}

func TestThumbnailGenerate_Archives(t *testing.T) {
	env := newTestEnv(t, 2)
	images := &fakeImages{img: []byte("jpeg"), contentType: "image/jpeg"}
	archive := &fakeArchive{url: "https://cdn.example.com"}
	svc := NewThumbnailService(env.meter, images, archive, zerolog.Nop())

	res, err := svc.Generate(context.Background(), env.acct, "cat", "stable-diffusion-v1-5")
	require.NoError(t, err)
	require.Len(t, archive.keys, 1)
	assert.True(t, strings.HasPrefix(archive.keys[0], "thumbnails/user-1/"))
	assert.True(t, strings.HasSuffix(archive.keys[0], ".jpg"))
	assert.True(t, strings.HasPrefix(res.ImageURL, "data:image/jpeg;base64,"), "response still carries the inline image")

	thumb := env.user(t).Thumbnails[0]
	assert.Equal(t, "https://cdn.example.com/"+archive.keys[0], thumb.URL)
	assert.Equal(t, archive.keys[0], thumb.ObjectKey)
}

func TestThumbnailGenerate_ArchiveFailureKeepsDataURI(t *testing.T) {
	env := newTestEnv(t, 2)
	images := &fakeImages{img: []byte("x"), contentType: "image/png"}
	svc := NewThumbnailService(env.meter, images, &fakeArchive{err: errors.New("s3 down")}, zerolog.Nop())

	res, err := svc.Generate(context.Background(), env.acct, "cat", "stable-diffusion-v1-4")
	require.NoError(t, err)
	thumb := env.user(t).Thumbnails[0]
	assert.Equal(t, res.ImageURL, thumb.URL)
	assert.Empty(t, thumb.ObjectKey)
}

func TestThumbnailGenerate_InvalidModelSkipsProvider(t *testing.T) {
	env := newTestEnv(t, 2)
	images := &fakeImages{}
	svc := NewThumbnailService(env.meter, images, nil, zerolog.Nop())

	_, err := svc.Generate(context.Background(), env.acct, "cat", "dall-e")
	require.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, images.repos)
	assert.Equal(t, 2, env.user(t).Credits)
}

func TestThumbnailGenerate_ProviderFailureDebitsNothing(t *testing.T) {
	env := newTestEnv(t, 2)
	images := &fakeImages{err: upstreamErr(http.StatusServiceUnavailable)}
	svc := NewThumbnailService(env.meter, images, nil, zerolog.Nop())

	_, err := svc.Generate(context.Background(), env.acct, "cat", "stable-diffusion-xl")
	require.ErrorIs(t, err, provider.ErrUpstream)
	u := env.user(t)
	assert.Equal(t, 2, u.Credits)
	assert.Empty(t, u.Thumbnails)
	assert.Empty(t, u.Hashtags)
}

func TestThumbnailModelIDs(t *testing.T) {
	assert.Equal(t, []string{"stable-diffusion-v1-4", "stable-diffusion-v1-5", "stable-diffusion-xl"}, ThumbnailModelIDs())
}
