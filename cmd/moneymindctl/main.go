// Package main provides moneymindctl, the operator CLI for schema
// migrations and demo data.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"moneymind/internal/auth"
	"moneymind/internal/backend"
	"moneymind/internal/cli"
	"moneymind/internal/log"
	"moneymind/internal/seed"
	"moneymind/internal/services"
)

const (
	Version = "0.1.0"
	appName = "moneymindctl"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "MoneyMind operator tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(migrateCmd(), seedCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: `Apply pending schema migrations for the store selected by DATA_BACKEND.
Only the backend settings are read; the memory backend has nothing to migrate.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig()
			if err != nil {
				return err
			}
			logger := cli.SetupLogger(cfg, cmd.ErrOrStderr(), log.ComponentStorage)

			bc, err := backend.FromAppConfig(cfg)
			if err != nil {
				return err
			}
			if err := backend.Migrate(bc); err != nil {
				return fmt.Errorf("migrate %s: %w", bc.Type, err)
			}
			logger.Info("Migrations applied", log.FieldBackend, bc.Type.String())
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var opts seed.Options

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill an account with fake transactions and goals",
		Long: `Create a user, or reuse it when the email exists and the password matches,
and add randomly generated transactions and goals. Pass --seed for
reproducible data. A password is generated and printed when none is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger := cli.SetupLogger(cfg, cmd.ErrOrStderr(), log.ComponentApp)

			ctx, cancel := cli.ShutdownContext(context.Background(), logger)
			defer cancel()

			res, err := cli.OpenBackend(ctx, logger, cfg)
			if err != nil {
				return fmt.Errorf("initialize backend: %w", err)
			}
			defer func() {
				if err := res.Cleanup(); err != nil {
					logger.Error("Backend cleanup failed", log.FieldError, err)
				}
			}()

			tokens := auth.NewTokens(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
			seeder := seed.New(
				services.NewUserService(res.Store, auth.NewHasher(cfg.BcryptCost), tokens, res.Publisher),
				services.NewTransactionService(res.Store, res.Publisher),
				services.NewGoalService(res.Store, res.Publisher),
			)

			out, err := seeder.Run(ctx, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s (id %d): %d transactions, %d goals\n",
				out.User.Email, out.User.ID, out.Transactions, out.Goals)
			if opts.Password == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Password: %s\n", out.Password)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "Account email (random when empty)")
	cmd.Flags().StringVar(&opts.Password, "password", "", "Account password (generated when empty)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Display name (random when empty)")
	cmd.Flags().IntVar(&opts.Transactions, "transactions", 50, "Number of transactions to create")
	cmd.Flags().IntVar(&opts.Goals, "goals", 3, "Number of goals to create")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "Random seed (0 picks one)")
	return cmd
}
