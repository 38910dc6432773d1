package secrets

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"

	"creatorhub/internal/config"
)

// Secret names in Secret Manager, one per provider or Stripe key.
const (
	OpenAIKey           = "openai-api-key"
	HuggingFaceKey      = "huggingface-api-key"
	SerpAPIKey          = "serpapi-api-key"
	StripeSecretKey     = "stripe-secret-key"
	StripeWebhookSecret = "stripe-webhook-secret"
)

type accessor interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

// Resolver reads the latest version of named secrets from one GCP project.
type Resolver struct {
	client    accessor
	closeFn   func() error
	projectID string
}

// NewResolver creates a Secret Manager backed resolver.
func NewResolver(ctx context.Context, projectID string, opts ...option.ClientOption) (*Resolver, error) {
	if projectID == "" {
		return nil, fmt.Errorf("GCP Project ID is not set for the current environment")
	}
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}
	return &Resolver{client: client, closeFn: client.Close, projectID: projectID}, nil
}

func (r *Resolver) Close() error {
	if r.closeFn == nil {
		return nil
	}
	return r.closeFn()
}

// Get returns the latest version of the named secret.
func (r *Resolver) Get(ctx context.Context, name string) (string, error) {
	resourceName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", r.projectID, name)
	result, err := r.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: resourceName})
	if err != nil {
		return "", fmt.Errorf("failed to access secret %s: %w", name, err)
	}
	return strings.TrimSpace(string(result.GetPayload().GetData())), nil
}

// Apply fills every empty key in cfg from Secret Manager. Values already set in the
// environment win, so a local override never needs a secret.
func (r *Resolver) Apply(ctx context.Context, cfg *config.Config) error {
	targets := []struct {
		name string
		dst  *string
	}{
		{OpenAIKey, &cfg.OpenAIAPIKey},
		{HuggingFaceKey, &cfg.HuggingFaceAPIKey},
		{SerpAPIKey, &cfg.SerpAPIKey},
		{StripeSecretKey, &cfg.StripeSecretKey},
		{StripeWebhookSecret, &cfg.StripeWebhookSecret},
	}
	for _, t := range targets {
		if *t.dst != "" {
			continue
		}
		v, err := r.Get(ctx, t.name)
		if err != nil {
			return err
		}
		*t.dst = v
	}
	return cfg.ValidateSecrets()
}
