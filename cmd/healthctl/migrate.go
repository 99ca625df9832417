package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vladimiradmaev/health-dialogue/internal/config"
	"github.com/vladimiradmaev/health-dialogue/internal/database"
)

var migrateDryRun bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Bring the database schema up to date",
	Long: `Create the tables and apply the embedded SQL migrations.

Each SQL migration runs once, in file name order, inside its own transaction.
Use --dry-run to list what would be applied without changing anything.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadDB()
		db, err := database.Open(cfg)
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		pending, err := database.PendingMigrations(db)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(pending) == 0 {
			fmt.Fprintln(out, color.GreenString("✓"), "No pending SQL migrations")
		}
		for _, id := range pending {
			fmt.Fprintln(out, color.YellowString("pending"), id)
		}
		if migrateDryRun {
			return nil
		}

		if err := database.Migrate(db); err != nil {
			return err
		}
		fmt.Fprintln(out, color.GreenString("✓"), "Schema is up to date on", cfg.Host+"/"+cfg.DBName)
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "only list pending migrations")
	rootCmd.AddCommand(migrateCmd)
}
