package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"creatorhub/internal/config"
	"creatorhub/internal/logger"
	"creatorhub/internal/secrets"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:           "creatorhub",
	Short:         "Credit-metered content generation backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and, when enabled, fills provider keys from Secret Manager.
func loadConfig(ctx context.Context) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Environment)

	if cfg.SecretManagerEnabled {
		resolver, err := secrets.NewResolver(ctx, cfg.GCPProjectID)
		if err != nil {
			return nil, log, err
		}
		defer resolver.Close()
		if err := resolver.Apply(ctx, cfg); err != nil {
			return nil, log, fmt.Errorf("resolve secrets: %w", err)
		}
		log.Info().Msg("Provider keys loaded from Secret Manager")
	}
	return cfg, log, nil
}
