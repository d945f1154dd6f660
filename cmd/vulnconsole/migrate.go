package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vulnconsole/vulnconsole/internal/config"
	"github.com/vulnconsole/vulnconsole/internal/store/postgres"
)

var migrateCmd = &cobra.Command{
	Use:         "migrate",
	Short:       "Run database migrations",
	Args:        cobra.NoArgs,
	Annotations: structuredLogging(),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadForDatabase()
		if err != nil {
			return err
		}
		return postgres.Migrate(cfg.DatabaseURL, slog.Default())
	},
}
