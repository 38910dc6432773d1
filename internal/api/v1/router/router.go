package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"creatorhub/internal/api/v1/handler"
	"creatorhub/internal/api/v1/respond"
	"creatorhub/internal/middleware"
	"creatorhub/internal/service"
)

// Services are the dependencies the HTTP surface is built from.
type Services struct {
	Users       service.UserService
	Hashtags    *service.HashtagService
	Thumbnails  *service.ThumbnailService
	Templates   *service.TemplateService
	Scraper     *service.ScraperService
	Suggestions *service.SuggestionService
	Stripe      *service.StripeService
}

// Options configures the cross-cutting middleware.
type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	Limiter        middleware.Limiter
	Interactions   *middleware.InteractionQueue
	Observer       middleware.HTTPObserver
	MetricsHandler http.Handler
}

func New(svcs Services, opts Options, logger zerolog.Logger) http.Handler {
	logger.Info().Msg("Router initialized")

	// 1. Initialize validator
	validate := validator.New(validator.WithRequiredStructEnabled())

	// 2. Initialize handlers
	userHandler := handler.NewUserHandler(svcs.Users, logger)
	hashtagHandler := handler.NewHashtagHandler(svcs.Hashtags, validate, logger)
	thumbnailHandler := handler.NewThumbnailHandler(svcs.Thumbnails, validate, logger)
	templateHandler := handler.NewTemplateHandler(svcs.Templates, validate, logger)
	scraperHandler := handler.NewScraperHandler(svcs.Scraper, validate, logger)
	suggestionHandler := handler.NewSuggestionHandler(svcs.Suggestions, validate, logger)
	subscriptionHandler := handler.NewSubscriptionHandler(svcs.Stripe, validate, logger)

	// 3. Initialize middleware
	authMiddleware := middleware.Auth(opts.JWTSecret, logger)
	accountMiddleware := middleware.Account(svcs.Users, logger)
	rateLimitMiddleware := middleware.RateLimit(opts.Limiter, logger)
	interactionsMiddleware := middleware.Interactions(opts.Interactions)

	// 4. Create router
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger, opts.Observer))
	r.Use(chimw.Recoverer)
	r.NotFound(respond.NotFound)
	r.MethodNotAllowed(respond.MethodNotAllowed)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	// 5. Mount API routes under /api
	r.Route("/api", func(api chi.Router) {
		api.NotFound(respond.NotFound)
		api.MethodNotAllowed(respond.MethodNotAllowed)

		// Stripe calls these without a session token
		subscriptionHandler.RegisterPublicRoutes(api)

		api.Group(func(authed chi.Router) {
			authed.Use(authMiddleware, interactionsMiddleware, accountMiddleware)

			userHandler.RegisterRoutes(authed)
			templateHandler.RegisterRoutes(authed)
			subscriptionHandler.RegisterRoutes(authed)

			// Routes that call a paid provider are rate limited
			authed.Group(func(metered chi.Router) {
				metered.Use(rateLimitMiddleware)
				hashtagHandler.RegisterRoutes(metered)
				thumbnailHandler.RegisterRoutes(metered)
				scraperHandler.RegisterRoutes(metered)
				suggestionHandler.RegisterRoutes(metered)
			})
		})
	})

	// 6. Apply CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Stripe-Signature"},
		AllowCredentials: true,
	})

	return c.Handler(r)
}
