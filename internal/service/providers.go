package service

import (
	"context"

	"creatorhub/internal/provider"
)

// Searcher runs web searches.
type Searcher interface {
	Search(ctx context.Context, query, engine string) (*provider.SearchResponse, error)
}

// ChatCompleter generates text from chat messages.
type ChatCompleter interface {
	Chat(ctx context.Context, model string, messages []provider.Message, temperature *float64) (string, error)
}

// ImageGenerator renders an image from a prompt with a model repository.
type ImageGenerator interface {
	TextToImage(ctx context.Context, repo, prompt string) ([]byte, string, error)
}

// SentimentClassifier scores the sentiment of a text.
type SentimentClassifier interface {
	ClassifySentiment(ctx context.Context, text string) (provider.Sentiment, error)
}

// ObjectArchive keeps a durable copy of generated media.
type ObjectArchive interface {
	Put(ctx context.Context, key, contentType string, body []byte) (string, error)
}
