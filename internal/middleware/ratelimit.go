package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"creatorhub/internal/api/v1/respond"
	"creatorhub/internal/ratelimit"
)

// Limiter decides whether a key may make another request.
type Limiter interface {
	Allow(ctx context.Context, key string) (ratelimit.Decision, error)
}

// RateLimit applies limiter per authenticated user. Limiter errors let the request through.
// A nil limiter disables the check.
func RateLimit(limiter Limiter, logger zerolog.Logger) func(http.Handler) http.Handler {
	logger = logger.With().Str("middleware", "RateLimit").Logger()
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			d, err := limiter.Allow(r.Context(), id.UserID)
			if err != nil {
				logger.Warn().Err(err).Str("user_id", id.UserID).Msg("Rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.Allowed {
				secs := int(math.Ceil(d.RetryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				respond.Error(w, http.StatusTooManyRequests, respond.CodeRateLimited, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
