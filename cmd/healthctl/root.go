package main

import (
	"fmt"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vladimiradmaev/health-dialogue/internal/app"
	"github.com/vladimiradmaev/health-dialogue/internal/config"
	"github.com/vladimiradmaev/health-dialogue/internal/logger"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "healthctl",
	Short: "Operator tool for the health dialogue service",
	Long: `healthctl runs maintenance tasks against the health dialogue database.

It reads the same environment (and .env file) as the service.

EXAMPLES:

  $ healthctl migrate --dry-run     # List pending SQL migrations
  $ healthctl migrate               # Apply them
  $ healthctl remind 42             # Schedule default reminders for user 42
  $ healthctl stats 42              # Chat and notification counts
  $ healthctl report 42             # Full health report (calls the AI provider)
  $ healthctl trend 80 79.5 78.8    # Analyze a series of values`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		level := logger.LevelWarn
		if verbose {
			level = logger.LevelDebug
		}
		return logger.InitWithConfig(logger.Config{
			Level:      level,
			OutputPath: "stderr",
			Format:     "text",
		})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
}

func parseUserID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid user id %q", arg)
	}
	return uint(id), nil
}

// openPostgresStores connects with only the DB_* settings so commands that
// never call the AI provider work without API keys
func openPostgresStores() (*app.Stores, func() error, error) {
	return app.OpenStores(&config.Config{
		Storage: config.StoragePostgres,
		DB:      config.LoadDB(),
	})
}
