package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"creatorhub/internal/api/v1/dto"
	"creatorhub/internal/api/v1/respond"
	"creatorhub/internal/provider"
	"creatorhub/internal/service"
)

type SuggestionHandler struct {
	suggestionSvc *service.SuggestionService
	validate      *validator.Validate
	logger        zerolog.Logger
}

func NewSuggestionHandler(suggestionSvc *service.SuggestionService, validate *validator.Validate, logger zerolog.Logger) *SuggestionHandler {
	return &SuggestionHandler{suggestionSvc: suggestionSvc, validate: validate, logger: logger.With().Str("handler", "SuggestionHandler").Logger()}
}

func (h *SuggestionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/analytics/generate-suggestions", h.generate)
	r.Post("/analytics/suggestions", h.section)
	r.Post("/sentiment", h.sentiment)
}

func (h *SuggestionHandler) generate(w http.ResponseWriter, r *http.Request) {
	acct, ok := account(w, r)
	if !ok {
		return
	}
	var req dto.SuggestionsRequestDTO
	if err := decodeAndValidate(w, r, h.validate, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	res, err := h.suggestionSvc.ContentSuggestions(r.Context(), acct, req.Topic)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.SuggestionsResponseDTO{Suggestions: res.Suggestions, Credits: res.Receipt.Balance})
}

func (h *SuggestionHandler) section(w http.ResponseWriter, r *http.Request) {
	acct, ok := account(w, r)
	if !ok {
		return
	}
	var req dto.SectionSuggestionsRequestDTO
	if err := decodeAndValidate(w, r, h.validate, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	res, err := h.suggestionSvc.SectionSuggestions(r.Context(), acct, req.Topic, req.Section)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.SectionSuggestionsResponseDTO{Sentiment: toSentimentDTO(res.Sentiment), Suggestions: res.Suggestions})
}

func (h *SuggestionHandler) sentiment(w http.ResponseWriter, r *http.Request) {
	acct, ok := account(w, r)
	if !ok {
		return
	}
	var req dto.SentimentRequestDTO
	if err := decodeAndValidate(w, r, h.validate, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	s, err := h.suggestionSvc.Sentiment(r.Context(), acct, req.Text)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, toSentimentDTO(s))
}

func toSentimentDTO(s provider.Sentiment) dto.SentimentDTO {
	return dto.SentimentDTO{PositiveRatio: s.PositiveRatio, SentimentScore: s.SentimentScore, CommentCount: s.CommentCount}
}
