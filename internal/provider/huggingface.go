package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	huggingFaceBaseURL = "https://api-inference.huggingface.co"
	// SentimentModel is the text-classification model used for sentiment scoring.
	SentimentModel = "distilbert-base-uncased-finetuned-sst-2-english"
)

// Thumbnail image parameters.
const (
	ImageWidth         = 1280
	ImageHeight        = 720
	ImageInferenceStep = 30
	ImageGuidanceScale = 7.5
)

// HuggingFace is an inference API client.
type HuggingFace struct {
	client
}

// Sentiment is the normalized result of a sentiment classification.
type Sentiment struct {
	PositiveRatio  float64 `json:"positiveRatio"`
	SentimentScore float64 `json:"sentimentScore"`
	CommentCount   int     `json:"commentCount"`
}

// DefaultSentiment is used when classification is unavailable.
var DefaultSentiment = Sentiment{PositiveRatio: 0.5, SentimentScore: 0, CommentCount: 0}

// NewHuggingFace creates a Hugging Face inference client. Image generation is slow, so the
// default timeout is longer than the other providers'.
func NewHuggingFace(apiKey string, opts ...Option) *HuggingFace {
	return &HuggingFace{client: newClient("huggingface", huggingFaceBaseURL, apiKey, 60*time.Second, opts)}
}

func (h *HuggingFace) post(ctx context.Context, repo string, payload any) ([]byte, string, error) {
	if err := h.configured(); err != nil {
		return nil, "", err
	}
	bodyJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("huggingface: failed to marshal request body: %w", err)
	}
	endpoint := h.baseURL + "/models/" + escapeRepo(repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyJSON))
	if err != nil {
		return nil, "", fmt.Errorf("huggingface: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+h.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return h.do(req)
}

// TextToImage renders prompt with the given model repository and returns the raw image.
func (h *HuggingFace) TextToImage(ctx context.Context, repo, prompt string) ([]byte, string, error) {
	payload := map[string]any{
		"inputs": prompt,
		"parameters": map[string]any{
			"width":               ImageWidth,
			"height":              ImageHeight,
			"num_inference_steps": ImageInferenceStep,
			"guidance_scale":      ImageGuidanceScale,
		},
	}
	body, contentType, err := h.post(ctx, repo, payload)
	if err != nil {
		return nil, "", err
	}
	if len(body) == 0 {
		return nil, "", fmt.Errorf("huggingface: empty image: %w", ErrUpstream)
	}
	if contentType == "" || !strings.HasPrefix(contentType, "image/") {
		contentType = "image/jpeg"
	}
	return body, contentType, nil
}

// ClassifySentiment scores text with SentimentModel. NEGATIVE labels map to 1-score and -score.
func (h *HuggingFace) ClassifySentiment(ctx context.Context, text string) (Sentiment, error) {
	body, _, err := h.post(ctx, SentimentModel, map[string]any{"inputs": text})
	if err != nil {
		return Sentiment{}, err
	}

	type labelScore struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	}
	// The API returns [[{label, score}, ...]] for a single input; older deployments return a flat list.
	var nested [][]labelScore
	var results []labelScore
	if err := json.Unmarshal(body, &nested); err == nil && len(nested) > 0 {
		results = nested[0]
	} else if err := decode(h.name, body, &results); err != nil {
		return Sentiment{}, err
	}

	label, score := "NEGATIVE", 0.0
	if len(results) > 0 {
		label, score = results[0].Label, results[0].Score
	}
	if label == "POSITIVE" {
		return Sentiment{PositiveRatio: score, SentimentScore: score, CommentCount: 1}, nil
	}
	return Sentiment{PositiveRatio: 1 - score, SentimentScore: -score, CommentCount: 1}, nil
}

// escapeRepo escapes each segment of "owner/name" separately so the slash survives.
func escapeRepo(repo string) string {
	parts := strings.Split(repo, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
