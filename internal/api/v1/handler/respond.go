package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"creatorhub/internal/api/v1/respond"
	"creatorhub/internal/middleware"
	"creatorhub/internal/model"
	"creatorhub/internal/provider"
	"creatorhub/internal/repository"
	"creatorhub/internal/service"
)

const maxBodyBytes = 1 << 20

// decodeAndValidate reads a JSON body into v, rejecting unknown fields, then validates it.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", service.ErrValidation)
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", service.ErrValidation, err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %s", service.ErrValidation, validationMessage(err))
	}
	return nil
}

// validationMessage names the failed fields without leaking validator internals.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(fields, ", ")
}

// account returns the caller resolved by the account guard.
func account(w http.ResponseWriter, r *http.Request) (model.Account, bool) {
	acct, ok := middleware.AccountFromContext(r.Context())
	if !ok || acct.UserID == "" {
		respond.Error(w, http.StatusUnauthorized, respond.CodeUnauthorized, "Unauthorized")
		return model.Account{}, false
	}
	return acct, true
}

// writeError maps err onto the error envelope. Provider and store details are logged, never
// returned to the client.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		respond.Error(w, http.StatusBadRequest, respond.CodeValidationFailed, validationText(err))
	case errors.Is(err, service.ErrInsufficientCredits):
		respond.Error(w, http.StatusForbidden, respond.CodeInsufficientCredits, "Insufficient credits")
	case errors.Is(err, repository.ErrNotFound):
		respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "Not found")
	case errors.Is(err, service.ErrInvalidSignature):
		respond.Error(w, http.StatusBadRequest, respond.CodeValidationFailed, "Webhook signature verification failed")
	case errors.Is(err, provider.ErrNotConfigured):
		logger.Error().Err(err).Msg("Provider not configured")
		respond.Error(w, http.StatusInternalServerError, respond.CodeUpstreamUnavailable, "Service unavailable")
	case errors.Is(err, provider.ErrUpstream):
		logger.Error().Err(err).Msg("Upstream provider failed")
		respond.Error(w, http.StatusInternalServerError, respond.CodeUpstreamFailure, "Upstream service failed")
	default:
		logger.Error().Err(err).Msg("Request failed")
		respond.Error(w, http.StatusInternalServerError, respond.CodePersistenceFailure, "Internal server error")
	}
}

// validationText strips the sentinel prefix from a validation error.
func validationText(err error) string {
	msg := strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": ")
	if msg == "" || msg == service.ErrValidation.Error() {
		return "Invalid request"
	}
	return msg
}
