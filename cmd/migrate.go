package cmd

import (
	"context"
	"os"

	"github.com/oseayemenre/bookshelf/internal/config"
	"github.com/oseayemenre/bookshelf/internal/logger"
	"github.com/spf13/cobra"
)

func MigrateCommand(ctx context.Context, envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "apply the database schema",
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

			logger.Info("migrate", "status", "schema applied")
			return nil
		},
	}
}
