package cmd

import (
	"go-event-roster/core/logger"
	"go-event-roster/core/server"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := server.Migrate(cmd.Context(), configPath); err != nil {
			return err
		}
		logger.Info("Migrations applied")
		return nil
	},
}
