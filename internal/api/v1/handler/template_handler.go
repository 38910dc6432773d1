package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"creatorhub/internal/api/v1/dto"
	"creatorhub/internal/api/v1/respond"
	"creatorhub/internal/catalog"
	"creatorhub/internal/provider"
	"creatorhub/internal/service"
)

type TemplateHandler struct {
	templateSvc *service.TemplateService
	validate    *validator.Validate
	logger      zerolog.Logger
}

func NewTemplateHandler(templateSvc *service.TemplateService, validate *validator.Validate, logger zerolog.Logger) *TemplateHandler {
	return &TemplateHandler{templateSvc: templateSvc, validate: validate, logger: logger.With().Str("handler", "TemplateHandler").Logger()}
}

func (h *TemplateHandler) RegisterRoutes(r chi.Router) {
	r.Post("/chatgpt", h.generate)
	r.Post("/logrecentTemplates", h.logUsage)
	r.Get("/recentTemplates", h.recent)
	r.Delete("/deleteTemplateUsage", h.deleteUsage)
	r.Get("/dashboard", h.dashboard)
}

func (h *TemplateHandler) generate(w http.ResponseWriter, r *http.Request) {
	acct, ok := account(w, r)
	if !ok {
		return
	}
	var req dto.TemplateGenerateDTO
	if err := decodeAndValidate(w, r, h.validate, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	chatModel := req.Model
	if chatModel == "" {
		chatModel = provider.DefaultOpenAIModel
	}
	reply, err := h.templateSvc.Generate(r.Context(), acct, toCatalogTemplate(req.Template), req.InputsData, chatModel)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.TemplateGenerateResponseDTO{Reply: reply})
}

func (h *TemplateHandler) logUsage(w http.ResponseWriter, r *http.Request) {
	acct, ok := account(w, r)
	if !ok {
		return
	}
	var req dto.TemplateLogDTO
	if err := decodeAndValidate(w, r, h.validate, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	receipt, err := h.templateSvc.Log(r.Context(), acct, req.TemplateID, req.Content)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.MessageResponseDTO{Message: "Template usage logged successfully", Credits: &receipt.Balance})
}

func (h *TemplateHandler) recent(w http.ResponseWriter, r *http.Request) {
	acct, ok := account(w, r)
	if !ok {
		return
	}
	recent, err := h.templateSvc.Recent(r.Context(), acct.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	out := make([]dto.RecentTemplateDTO, 0, len(recent))
	for _, rt := range recent {
		inputs := make([]dto.RecentTemplateInputDTO, 0, len(rt.Inputs))
		for _, in := range rt.Inputs {
			inputs = append(inputs, dto.RecentTemplateInputDTO{ID: in.ID, Label: in.Label, Type: in.Type})
		}
		out = append(out, dto.RecentTemplateDTO{
			ID:          rt.ID,
			TemplateID:  rt.TemplateID,
			Content:     rt.Content,
			CreatedAt:   rt.CreatedAt,
			Title:       rt.Title,
			Description: rt.Description,
			Command:     rt.Command,
			Categories:  rt.Categories,
			Inputs:      inputs,
		})
	}
	respond.JSON(w, http.StatusOK, out)
}

func (h *TemplateHandler) deleteUsage(w http.ResponseWriter, r *http.Request) {
	acct, ok := account(w, r)
	if !ok {
		return
	}
	if err := h.templateSvc.Delete(r.Context(), acct.UserID, r.URL.Query().Get("usageId")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.MessageResponseDTO{Message: "Template usage deleted successfully"})
}

func (h *TemplateHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	if _, ok := account(w, r); !ok {
		return
	}
	respond.JSON(w, http.StatusOK, h.templateSvc.Dashboard())
}

func toCatalogTemplate(t dto.TemplateDTO) catalog.Template {
	inputs := make([]catalog.Input, len(t.Inputs))
	for i, in := range t.Inputs {
		inputs[i] = catalog.Input{ID: in.ID, Label: in.Label, Type: in.Type}
	}
	return catalog.Template{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Command:     t.Command,
		Categories:  t.Categories,
		Inputs:      inputs,
	}
}
