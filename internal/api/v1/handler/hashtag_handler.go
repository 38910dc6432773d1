package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"creatorhub/internal/api/v1/dto"
	"creatorhub/internal/api/v1/respond"
	"creatorhub/internal/service"
)

type HashtagHandler struct {
	hashtagSvc *service.HashtagService
	validate   *validator.Validate
	logger     zerolog.Logger
}

func NewHashtagHandler(hashtagSvc *service.HashtagService, validate *validator.Validate, logger zerolog.Logger) *HashtagHandler {
	return &HashtagHandler{hashtagSvc: hashtagSvc, validate: validate, logger: logger.With().Str("handler", "HashtagHandler").Logger()}
}

func (h *HashtagHandler) RegisterRoutes(r chi.Router) {
	r.Post("/generate-hashtags", h.generate)
	r.Get("/trending-hashtags", h.trending)
}

func (h *HashtagHandler) generate(w http.ResponseWriter, r *http.Request) {
	acct, ok := account(w, r)
	if !ok {
		return
	}
	var req dto.HashtagGenerateDTO
	if err := decodeAndValidate(w, r, h.validate, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	res, err := h.hashtagSvc.Generate(r.Context(), acct, req.Topic)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, toHashtagResponse(res))
}

func (h *HashtagHandler) trending(w http.ResponseWriter, r *http.Request) {
	acct, ok := account(w, r)
	if !ok {
		return
	}
	res, err := h.hashtagSvc.Trending(r.Context(), acct)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, toHashtagResponse(res))
}

func toHashtagResponse(res *service.HashtagResult) dto.HashtagResponseDTO {
	out := dto.HashtagResponseDTO{Hashtags: make([]dto.HashtagDTO, 0, len(res.Hashtags)), Credits: res.Receipt.Balance}
	for _, h := range res.Hashtags {
		trend := make([]dto.TrendPointDTO, len(h.Trend))
		for i, p := range h.Trend {
			trend[i] = dto.TrendPointDTO{Day: p.Day, Value: p.Value}
		}
		out.Hashtags = append(out.Hashtags, dto.HashtagDTO{Tag: h.Tag, Score: h.Score, Volume: h.Volume, Trend: trend})
	}
	return out
}
