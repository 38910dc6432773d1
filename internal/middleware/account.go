package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"creatorhub/internal/api/v1/respond"
	"creatorhub/internal/model"
	"creatorhub/internal/repository"
)

// AccountResolver loads the caller's user, creating it on first authentication.
type AccountResolver interface {
	Ensure(ctx context.Context, id, email string) (*model.User, error)
}

// Account resolves the authenticated caller to a user once per request and stores the
// model.Account in the context. It must run after Auth.
func Account(users AccountResolver, logger zerolog.Logger) func(http.Handler) http.Handler {
	logger = logger.With().Str("middleware", "Account").Logger()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				respond.Error(w, http.StatusUnauthorized, respond.CodeUnauthorized, "Unauthorized")
				return
			}
			u, err := users.Ensure(r.Context(), id.UserID, id.Email)
			switch {
			case errors.Is(err, repository.ErrNotFound):
				respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "User not found")
				return
			case err != nil:
				logger.Error().Err(err).Str("user_id", id.UserID).Msg("Failed to resolve account")
				respond.Error(w, http.StatusInternalServerError, respond.CodePersistenceFailure, "Failed to load user")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), u.Account())))
		})
	}
}
