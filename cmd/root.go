package cmd

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "event-roster",
	Short: "Event roster and squad planning service",
	Long: `event-roster keeps RSVPs and role selections for scheduled events,
opens and closes each event's venue on time, and splits the attending
roster into squads for the event's operators.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

// Execute runs the root command; without a subcommand it serves.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: environment and .env only)")
	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd)
}
