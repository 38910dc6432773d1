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

type ThumbnailHandler struct {
	thumbnailSvc *service.ThumbnailService
	validate     *validator.Validate
	logger       zerolog.Logger
}

func NewThumbnailHandler(thumbnailSvc *service.ThumbnailService, validate *validator.Validate, logger zerolog.Logger) *ThumbnailHandler {
	return &ThumbnailHandler{thumbnailSvc: thumbnailSvc, validate: validate, logger: logger.With().Str("handler", "ThumbnailHandler").Logger()}
}

func (h *ThumbnailHandler) RegisterRoutes(r chi.Router) {
	r.Post("/generate-thumbnail", h.generate)
}

func (h *ThumbnailHandler) generate(w http.ResponseWriter, r *http.Request) {
	acct, ok := account(w, r)
	if !ok {
		return
	}
	var req dto.ThumbnailGenerateDTO
	if err := decodeAndValidate(w, r, h.validate, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	res, err := h.thumbnailSvc.Generate(r.Context(), acct, req.Prompt, req.ModelID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.ThumbnailResponseDTO{ImageURL: res.ImageURL, Credits: res.Receipt.Balance})
}
