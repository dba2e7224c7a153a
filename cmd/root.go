package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func Run() error {
	ctx := context.Background()

	var envFile string

	cmd := &cobra.Command{
		Use:          "bookshelf",
		Short:        "personal library tracker: books, reading status and shelves",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file loaded before reading the environment")

	cmd.AddCommand(HTTPCommand(ctx, &envFile))
	cmd.AddCommand(MigrateCommand(ctx, &envFile))
	cmd.AddCommand(SeedCommand(ctx, &envFile))

	if err := cmd.Execute(); err != nil {
		return err
	}

	return nil
}
