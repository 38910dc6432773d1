package main

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"creatorhub/internal/config"
	"creatorhub/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run Postgres schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all up migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := migrationConfig(cmd)
		if err != nil {
			return err
		}
		if err := repository.MigrateUp(cfg.DatabaseURL); err != nil {
			return err
		}
		log.Info().Msg("Migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back all migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := migrationConfig(cmd)
		if err != nil {
			return err
		}
		if err := repository.MigrateDown(cfg.DatabaseURL); err != nil {
			return err
		}
		log.Info().Msg("Migrations rolled back")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
}

func migrationConfig(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfg, log, err := loadConfig(cmd.Context())
	if err != nil {
		return nil, log, err
	}
	if cfg.StoreDriver != config.StorePostgres {
		return nil, log, errors.New("migrations only apply to STORE_DRIVER=postgres")
	}
	return cfg, log, nil
}
