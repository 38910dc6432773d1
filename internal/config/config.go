package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store drivers
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Usage event backends
const (
	EventsNone     = "none"
	EventsPubSub   = "pubsub"
	EventsRabbitMQ = "rabbitmq"
)

type Config struct {
	Environment   string `envconfig:"ENVIRONMENT" default:"production"`
	Port          string `envconfig:"PORT" default:"8080"`
	PublicBaseURL string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:3000"`
	JWTSecret     string `envconfig:"JWT_SECRET" required:"true"`

	// Storage
	StoreDriver      string `envconfig:"STORE_DRIVER" default:"mongo"`
	MongoURI         string `envconfig:"MONGO_URI"`
	MongoDatabase    string `envconfig:"MONGO_DATABASE" default:"creatorhub"`
	DatabaseURL      string `envconfig:"DATABASE_URL"`
	DBMaxConns       int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBSimpleProtocol bool   `envconfig:"DB_SIMPLE_PROTOCOL" default:"false"`
	AutoMigrate      bool   `envconfig:"AUTO_MIGRATE" default:"false"`

	// Generation providers
	OpenAIAPIKey      string `envconfig:"OPENAI_API_KEY"`
	HuggingFaceAPIKey string `envconfig:"HUGGINGFACE_API_KEY"`
	SerpAPIKey        string `envconfig:"SERPAPI_API_KEY"`
	OpenAIBaseURL     string `envconfig:"OPENAI_BASE_URL"`
	HuggingFaceURL    string `envconfig:"HUGGINGFACE_BASE_URL"`
	SerpAPIBaseURL    string `envconfig:"SERPAPI_BASE_URL"`

	// Content suggestion retry policy
	SuggestionAttempts   int           `envconfig:"SUGGESTION_ATTEMPTS" default:"3"`
	SuggestionRetryDelay time.Duration `envconfig:"SUGGESTION_RETRY_DELAY" default:"1s"`

	// Stripe
	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`

	// Google Cloud
	GCPProjectID         string `envconfig:"GCP_PROJECT_ID"`
	SecretManagerEnabled bool   `envconfig:"SECRET_MANAGER_ENABLED" default:"false"`

	// Thumbnail archive (any S3-compatible store)
	S3URL       string `envconfig:"S3_URL"`
	S3Bucket    string `envconfig:"S3_BUCKET"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY"`
	S3PublicURL string `envconfig:"S3_PUBLIC_URL"`

	// Usage events
	EventsBackend string `envconfig:"EVENTS_BACKEND" default:"none"`
	PubSubTopic   string `envconfig:"PUBSUB_TOPIC" default:"usage-events"`
	RabbitMQURL   string `envconfig:"RABBITMQ_URL"`
	EventsQueue   string `envconfig:"EVENTS_QUEUE" default:"usage-events"`

	// Rate limiting on metered routes; disabled when REDIS_URL is empty.
	RedisURL        string        `envconfig:"REDIS_URL"`
	RateLimit       int           `envconfig:"RATE_LIMIT" default:"30"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// Interaction log writes are queued; entries beyond the buffer are dropped.
	InteractionQueueSize int `envconfig:"INTERACTION_QUEUE_SIZE" default:"1024"`
	InteractionWorkers   int `envconfig:"INTERACTION_WORKERS" default:"4"`

	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.EventsBackend = strings.ToLower(strings.TrimSpace(cfg.EventsBackend))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment reports whether the service runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Validate checks cross-field requirements envconfig cannot express. Provider and Stripe keys
// are mandatory outside development; in development a missing key only disables its feature.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case StoreMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required when STORE_DRIVER=mongo"))
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORE_DRIVER=postgres"))
		}
	case StoreMemory:
		if !c.IsDevelopment() {
			errs = append(errs, errors.New("STORE_DRIVER=memory is only allowed in development"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	switch c.EventsBackend {
	case EventsNone:
	case EventsPubSub:
		if c.GCPProjectID == "" {
			errs = append(errs, errors.New("GCP_PROJECT_ID is required when EVENTS_BACKEND=pubsub"))
		}
	case EventsRabbitMQ:
		if c.RabbitMQURL == "" {
			errs = append(errs, errors.New("RABBITMQ_URL is required when EVENTS_BACKEND=rabbitmq"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown EVENTS_BACKEND %q", c.EventsBackend))
	}

	if c.SecretManagerEnabled && c.GCPProjectID == "" {
		errs = append(errs, errors.New("GCP_PROJECT_ID is required when SECRET_MANAGER_ENABLED=true"))
	}
	if c.SuggestionAttempts < 1 {
		errs = append(errs, errors.New("SUGGESTION_ATTEMPTS must be at least 1"))
	}

	// Secret Manager fills the keys after Load, so they are checked by ValidateSecrets instead.
	if !c.SecretManagerEnabled {
		if err := c.ValidateSecrets(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ValidateSecrets fails outside development when any provider or Stripe key is missing.
func (c *Config) ValidateSecrets() error {
	if c.IsDevelopment() {
		return nil
	}
	var missing []string
	for name, v := range map[string]string{
		"OPENAI_API_KEY":        c.OpenAIAPIKey,
		"HUGGINGFACE_API_KEY":   c.HuggingFaceAPIKey,
		"SERPAPI_API_KEY":       c.SerpAPIKey,
		"STRIPE_SECRET_KEY":     c.StripeSecretKey,
		"STRIPE_WEBHOOK_SECRET": c.StripeWebhookSecret,
	} {
		if v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
}

// ArchiveEnabled reports whether generated thumbnails are copied to object storage.
func (c *Config) ArchiveEnabled() bool {
	return c.S3Bucket != ""
}
