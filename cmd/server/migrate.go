package main

import (
	"github.com/spf13/cobra"

	"github.com/vedran77/minilid/internal/database"
	"github.com/vedran77/minilid/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Logger.Sync()

		db, err := database.OpenSQL(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		return database.Migrate(cmd.Context(), db, logger.Logger)
	},
}
