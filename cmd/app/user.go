package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"creatorhub/internal/model"
	"creatorhub/internal/service"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users outside the identity provider",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user with a password",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, log, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		store, err := openStore(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer store.Close()

		flags := cmd.Flags()
		id, _ := flags.GetString("id")
		email, _ := flags.GetString("email")
		password, _ := flags.GetString("password")
		plan, _ := flags.GetString("plan")
		p := service.RegisterParams{ID: id, Email: email, Password: password, Plan: model.Plan(plan)}
		if flags.Changed("credits") {
			credits, _ := flags.GetInt("credits")
			p.Credits = &credits
		}

		u, err := service.NewUserService(store.Users).Register(ctx, p)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s) with %d credits on %s\n", u.ID, u.Email, u.Credits, u.Subscription)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd)

	f := userCreateCmd.Flags()
	f.String("id", "", "user id, a random UUID when empty")
	f.String("email", "", "email address")
	f.String("password", "", "password, at least 8 characters")
	f.Int("credits", model.DefaultCredits, "starting credit balance")
	f.String("plan", "", "subscription plan (Basic, Standard, Pro, Enterprise)")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("password")
}
