package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/oseayemenre/bookshelf/internal/bcrypt"
	"github.com/oseayemenre/bookshelf/internal/config"
	"github.com/oseayemenre/bookshelf/internal/logger"
	"github.com/spf13/cobra"
)

// SeedCommand creates the demo admin account, or promotes it if the email is
// already registered.
func SeedCommand(ctx context.Context, envFile *string) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "create or promote the demo admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*envFile)

			if err != nil {
				return err
			}

			logger, err := logger.New(cfg.Env, os.Stderr)

			if err != nil {
				return err
			}

			db, err := openStore(cfg)

			if err != nil {
				return err
			}

			defer db.Close()

			if err := db.Migrate(ctx); err != nil {
				return err
			}

			hash, err := bcrypt.HashPassword(password)

			if err != nil {
				return err
			}

			email = strings.ToLower(strings.TrimSpace(email))

			created, err := db.EnsureAdmin(ctx, name, email, hash)

			if err != nil {
				return err
			}

			if created {
				logger.Info("seed", "status", "admin created", "email", email)
			} else {
				logger.Info("seed", "status", "admin already present, role ensured", "email", email)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "Demo User", "admin display name")
	cmd.Flags().StringVar(&email, "email", "demo@bookshelf.app", "admin email")
	cmd.Flags().StringVar(&password, "password", "demo123", "admin password, used only when the account is created")

	return cmd
}
