package dto

import "creatorhub/internal/service"

// SuggestionsRequestDTO is the body of POST /analytics/generate-suggestions
type SuggestionsRequestDTO struct {
	Topic string `json:"topic" validate:"required"`
}

type SuggestionsResponseDTO struct {
	Suggestions []service.Suggestion `json:"suggestions"`
	Credits     int                  `json:"credits"`
}

// SectionSuggestionsRequestDTO is the body of POST /analytics/suggestions
type SectionSuggestionsRequestDTO struct {
	Topic   string `json:"topic" validate:"required"`
	Section string `json:"section" validate:"required"`
}

type SentimentDTO struct {
	PositiveRatio  float64 `json:"positiveRatio"`
	SentimentScore float64 `json:"sentimentScore"`
	CommentCount   int     `json:"commentCount"`
}

type SectionSuggestionsResponseDTO struct {
	Sentiment   SentimentDTO `json:"sentiment"`
	Suggestions []string     `json:"suggestions"`
}

// SentimentRequestDTO is the body of POST /sentiment
type SentimentRequestDTO struct {
	Text string `json:"text" validate:"required,max=5000"`
}
