package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"creatorhub/internal/model"
)

// thumbnailModels maps the model ids clients send to Hugging Face repositories.
var thumbnailModels = map[string]string{
	"stable-diffusion-xl":   "stabilityai/stable-diffusion-xl-base-1.0",
	"stable-diffusion-v1-5": "runwayml/stable-diffusion-v1-5",
	"stable-diffusion-v1-4": "CompVis/stable-diffusion-v1-4",
}

// ThumbnailModelIDs lists the accepted model ids.
func ThumbnailModelIDs() []string {
	ids := make([]string, 0, len(thumbnailModels))
	for id := range thumbnailModels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ThumbnailResult is a generated image as a data URI.
type ThumbnailResult struct {
	ImageURL string
	Receipt  Receipt
}

// ThumbnailService generates thumbnail images.
type ThumbnailService struct {
	meter   *Meter
	images  ImageGenerator
	archive ObjectArchive
	now     func() time.Time
	logger  zerolog.Logger
}

// NewThumbnailService creates a ThumbnailService. archive may be nil.
func NewThumbnailService(meter *Meter, images ImageGenerator, archive ObjectArchive, logger zerolog.Logger) *ThumbnailService {
	return &ThumbnailService{
		meter:   meter,
		images:  images,
		archive: archive,
		now:     time.Now,
		logger:  logger.With().Str("service", "ThumbnailService").Logger(),
	}
}

// Generate renders prompt with the chosen model. The usage history also gets a hashtag built
// from the prompt.
func (s *ThumbnailService) Generate(ctx context.Context, acct model.Account, prompt, modelID string) (*ThumbnailResult, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrValidation)
	}
	repo, ok := thumbnailModels[modelID]
	if !ok {
		return nil, fmt.Errorf("%w: invalid model id %q", ErrValidation, modelID)
	}

	var dataURI string
	receipt, err := s.meter.Charge(ctx, acct, ActionGenerateThumbnail, func(ctx context.Context) (model.Usage, error) {
		img, contentType, err := s.images.TextToImage(ctx, repo, prompt)
		if err != nil {
			return model.Usage{}, err
		}
		dataURI = "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(img)

		now := s.now().UTC()
		thumb := model.Thumbnail{
			ID:        uuid.NewString(),
			URL:       dataURI,
			Prompt:    prompt,
			ModelID:   modelID,
			CreatedAt: now,
		}
		s.archiveImage(ctx, acct.UserID, &thumb, contentType, img)

		return model.Usage{
			Thumbnails: []model.Thumbnail{thumb},
			Hashtags:   []model.Hashtag{{ID: uuid.NewString(), Tag: stripSpaces(prompt), CreatedAt: now}},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &ThumbnailResult{ImageURL: dataURI, Receipt: receipt}, nil
}

// archiveImage uploads the image and points the record at the stored copy. A failed upload keeps
// the inline data URI.
func (s *ThumbnailService) archiveImage(ctx context.Context, userID string, thumb *model.Thumbnail, contentType string, img []byte) {
	if s.archive == nil {
		return
	}
	key := fmt.Sprintf("thumbnails/%s/%s%s", userID, thumb.ID, imageExtensions[contentType])
	url, err := s.archive.Put(ctx, key, contentType, img)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Str("key", key).Msg("Failed to archive thumbnail, keeping inline image")
		return
	}
	thumb.URL = url
	thumb.ObjectKey = key
}
