package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"creatorhub/internal/api/v1/router"
	"creatorhub/internal/catalog"
	"creatorhub/internal/config"
	"creatorhub/internal/metrics"
	"creatorhub/internal/middleware"
	"creatorhub/internal/objectstore"
	"creatorhub/internal/provider"
	"creatorhub/internal/pubsub"
	"creatorhub/internal/ratelimit"
	"creatorhub/internal/repository"
	"creatorhub/internal/repository/mongostore"
	"creatorhub/internal/repository/memstore"
	"creatorhub/internal/service"
)

const (
	providerTimeout = 60 * time.Second
	shutdownTimeout = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, log, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		return serve(ctx, cfg, log)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// 1. Open storage
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	// 2. Usage event publisher
	publisher, topic, err := openPublisher(ctx, cfg)
	if err != nil {
		return err
	}
	defer publisher.Close()

	m := metrics.New()

	// 3. Optional thumbnail archive
	var archive service.ObjectArchive
	if cfg.ArchiveEnabled() {
		s3, err := objectstore.NewS3Archive(ctx, objectstore.Options{
			Endpoint:  cfg.S3URL,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		}, log)
		if err != nil {
			return fmt.Errorf("init thumbnail archive: %w", err)
		}
		archive = s3
	}

	// 4. Optional rate limiter
	var limiter middleware.Limiter
	if cfg.RedisURL != "" {
		client, err := ratelimit.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		limiter = ratelimit.New(client, cfg.RateLimit, cfg.RateLimitWindow)
	}

	// 5. Providers
	openai := provider.NewOpenAI(cfg.OpenAIAPIKey, providerOptions(cfg.OpenAIBaseURL, m)...)
	hf := provider.NewHuggingFace(cfg.HuggingFaceAPIKey, providerOptions(cfg.HuggingFaceURL, m)...)
	serp := provider.NewSerpAPI(cfg.SerpAPIKey, providerOptions(cfg.SerpAPIBaseURL, m)...)

	cat, err := catalog.Default()
	if err != nil {
		return fmt.Errorf("load template catalog: %w", err)
	}

	// 6. Services
	telemetry := service.NewTelemetryService(store.Telemetry, log)
	interactions := middleware.NewInteractionQueue(telemetry, cfg.InteractionQueueSize, cfg.InteractionWorkers, m, log)
	defer interactions.Close()
	meter := service.NewMeter(store.Usage, publisher, topic, m, log)
	svcs := router.Services{
		Users:       service.NewUserService(store.Users),
		Hashtags:    service.NewHashtagService(meter, serp, log),
		Thumbnails:  service.NewThumbnailService(meter, hf, archive, log),
		Templates:   service.NewTemplateService(meter, openai, cat, store.Usage, telemetry, log),
		Scraper:     service.NewScraperService(meter, serp, telemetry, log),
		Suggestions: service.NewSuggestionService(meter, openai, hf, telemetry, service.RetryPolicy{Attempts: cfg.SuggestionAttempts, Delay: cfg.SuggestionRetryDelay}, log),
		Stripe:      service.NewStripeService(cfg, service.NewSubscriptionService(store.Subscriptions, log), telemetry, m, log),
	}

	// 7. HTTP server
	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: router.New(svcs, router.Options{
			JWTSecret:      cfg.JWTSecret,
			AllowedOrigins: cfg.AllowedOrigins,
			Limiter:        limiter,
			Interactions:   interactions,
			Observer:       m,
			MetricsHandler: m.Handler(),
		}, log),
		ReadTimeout: 10 * time.Second,
		// Generation calls can take most of a minute
		WriteTimeout: 2 * providerTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}
	log.Info().Msg("Shutdown signal received, exiting...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Msg("Server shut down gracefully")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*repository.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		return mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
	case config.StorePostgres:
		if cfg.AutoMigrate {
			if err := repository.MigrateUp(cfg.DatabaseURL); err != nil {
				return nil, err
			}
			log.Info().Msg("Database migrations applied")
		}
		return repository.OpenPostgres(ctx, cfg.DatabaseURL, repository.PostgresOptions{
			MaxConns:       cfg.DBMaxConns,
			SimpleProtocol: cfg.DBSimpleProtocol,
		})
	case config.StoreMemory:
		log.Warn().Msg("Using the in-memory store, data is lost on restart")
		return memstore.Open(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func openPublisher(ctx context.Context, cfg *config.Config) (pubsub.Publisher, string, error) {
	switch cfg.EventsBackend {
	case config.EventsPubSub:
		p, err := pubsub.NewPublisher(ctx, cfg.GCPProjectID)
		return p, cfg.PubSubTopic, err
	case config.EventsRabbitMQ:
		p, err := pubsub.NewRabbitPublisher(cfg.RabbitMQURL)
		return p, cfg.EventsQueue, err
	default:
		return pubsub.NoopPublisher{}, "", nil
	}
}

func providerOptions(baseURL string, m *metrics.Metrics) []provider.Option {
	opts := []provider.Option{provider.WithTimeout(providerTimeout), provider.WithObserver(m)}
	if baseURL != "" {
		opts = append(opts, provider.WithBaseURL(baseURL))
	}
	return opts
}
