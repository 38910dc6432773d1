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

type ScraperHandler struct {
	scraperSvc *service.ScraperService
	validate   *validator.Validate
	logger     zerolog.Logger
}

func NewScraperHandler(scraperSvc *service.ScraperService, validate *validator.Validate, logger zerolog.Logger) *ScraperHandler {
	return &ScraperHandler{scraperSvc: scraperSvc, validate: validate, logger: logger.With().Str("handler", "ScraperHandler").Logger()}
}

func (h *ScraperHandler) RegisterRoutes(r chi.Router) {
	r.Post("/serpwebscraper", h.search)
}

func (h *ScraperHandler) search(w http.ResponseWriter, r *http.Request) {
	acct, ok := account(w, r)
	if !ok {
		return
	}
	var req dto.ScrapeRequestDTO
	if err := decodeAndValidate(w, r, h.validate, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	res, err := h.scraperSvc.Search(r.Context(), acct, req.UserQuery, req.SearchEngine)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := dto.ScrapeResponseDTO{
		SearchResults:       make([]dto.SearchResultDTO, 0, len(res.SearchResults)),
		ChartData:           make([]dto.ChartPointDTO, 0, len(res.ChartData)),
		SocialMediaMentions: res.SocialMediaMentions,
		TopTrends:           res.TopTrends,
		PostCount:           res.PostCount,
		Credits:             res.Receipt.Balance,
	}
	for _, sr := range res.SearchResults {
		resp.SearchResults = append(resp.SearchResults, dto.SearchResultDTO(sr))
	}
	for _, cp := range res.ChartData {
		resp.ChartData = append(resp.ChartData, dto.ChartPointDTO(cp))
	}
	respond.JSON(w, http.StatusOK, resp)
}
