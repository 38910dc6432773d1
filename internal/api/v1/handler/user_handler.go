package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"creatorhub/internal/api/v1/dto"
	"creatorhub/internal/api/v1/respond"
	"creatorhub/internal/service"
)

type UserHandler struct {
	userService service.UserService
	logger      zerolog.Logger
}

func NewUserHandler(userService service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{userService: userService, logger: logger.With().Str("handler", "UserHandler").Logger()}
}

// RegisterRoutes mounts the account routes. They expect the account guard upstream.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/credits", h.getCredits)
	r.Get("/profile", h.getProfile)
}

func (h *UserHandler) getCredits(w http.ResponseWriter, r *http.Request) {
	acct, ok := account(w, r)
	if !ok {
		return
	}
	credits, err := h.userService.Credits(r.Context(), acct.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.CreditsResponseDTO{Credits: credits})
}

func (h *UserHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	acct, ok := account(w, r)
	if !ok {
		return
	}
	p, err := h.userService.Profile(r.Context(), acct.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := dto.ProfileResponseDTO{
		Email:               p.Email,
		Credits:             p.Credits,
		Thumbnails:          make([]dto.ThumbnailHistoryDTO, 0, len(p.Thumbnails)),
		Hashtags:            make([]dto.HashtagHistoryDTO, 0, len(p.Hashtags)),
		Subscription:        string(p.Subscription),
		SubscriptionEndDate: p.SubscriptionEnd,
	}
	for _, t := range p.Thumbnails {
		resp.Thumbnails = append(resp.Thumbnails, dto.ThumbnailHistoryDTO{ID: t.ID, URL: t.URL, Prompt: t.Prompt, CreatedAt: t.CreatedAt})
	}
	for _, t := range p.Hashtags {
		resp.Hashtags = append(resp.Hashtags, dto.HashtagHistoryDTO{ID: t.ID, Tag: t.Tag, CreatedAt: t.CreatedAt})
	}
	respond.JSON(w, http.StatusOK, resp)
}
