package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"creatorhub/internal/api/v1/respond"
	"creatorhub/internal/model"
)

// Injected key type to avoid context collisions
type contextKey string

const (
	identityContextKey = contextKey("identity")
	accountContextKey  = contextKey("account")
)

// Claims are the session token claims issued by the identity provider.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller before the account is resolved.
type Identity struct {
	UserID string
	Email  string
}

// ValidateToken verifies an HMAC-signed session token and returns its claims.
func ValidateToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v (expected HMAC)", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil {
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// Auth requires a valid Bearer token and stores the caller's identity in the context.
func Auth(jwtSecret string, logger zerolog.Logger) func(http.Handler) http.Handler {
	logger = logger.With().Str("middleware", "Auth").Logger()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug().Str("path", r.URL.Path).Msg("Authorization header missing")
				respond.Error(w, http.StatusUnauthorized, respond.CodeUnauthorized, "Unauthorized")
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Debug().Msg("Invalid authorization header")
				respond.Error(w, http.StatusUnauthorized, respond.CodeUnauthorized, "Unauthorized")
				return
			}
			claims, err := ValidateToken(strings.TrimSpace(parts[1]), jwtSecret)
			if err != nil {
				logger.Warn().Err(err).Msg("Invalid token")
				respond.Error(w, http.StatusUnauthorized, respond.CodeUnauthorized, "Unauthorized")
				return
			}
			ctx := WithIdentity(r.Context(), Identity{UserID: claims.Subject, Email: claims.Email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithIdentity returns ctx carrying the caller's identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext returns the identity stored by Auth.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(Identity)
	return id, ok && id.UserID != ""
}

// WithAccount returns ctx carrying the resolved account.
func WithAccount(ctx context.Context, acct model.Account) context.Context {
	return context.WithValue(ctx, accountContextKey, acct)
}

// AccountFromContext returns the account stored by Account.
func AccountFromContext(ctx context.Context) (model.Account, bool) {
	acct, ok := ctx.Value(accountContextKey).(model.Account)
	return acct, ok
}
