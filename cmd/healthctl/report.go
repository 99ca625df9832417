package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vladimiradmaev/health-dialogue/internal/app"
	"github.com/vladimiradmaev/health-dialogue/internal/bot/menus"
	"github.com/vladimiradmaev/health-dialogue/internal/config"
	"github.com/vladimiradmaev/health-dialogue/internal/domain"
	"github.com/vladimiradmaev/health-dialogue/internal/logger"
	"github.com/vladimiradmaev/health-dialogue/internal/services"
)

var reportJSON bool

var reportCmd = &cobra.Command{
	Use:   "report <user-id>",
	Short: "Generate a health report for a user",
	Long: `Generate the full health report: BMI, risk factors, the 30-day trend
analysis and recommendations.

This calls the configured AI provider, so the AI_* settings must be valid.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseUserID(args[0])
		if err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		stores, closeStores, err := app.OpenStores(cfg)
		if err != nil {
			return err
		}
		defer closeStores()

		client, err := services.NewCompletionClient(cmd.Context(), cfg.AI)
		if err != nil {
			return err
		}
		if closer, ok := client.(io.Closer); ok {
			defer closer.Close()
		}

		svc := app.NewServices(stores, client, cfg.AI, logger.GetLogger())
		report, err := svc.Health.CreateHealthReport(cmd.Context(), userID)
		if err != nil {
			return err
		}
		return printReport(cmd.OutOrStdout(), report, reportJSON)
	},
}

func printReport(w io.Writer, report *domain.HealthReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	bold := color.New(color.Bold)
	bold.Fprintf(w, "Health report for user %d\n", report.UserID)
	color.New(color.Faint).Fprintln(w, report.GeneratedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, menus.FormatMetrics(&report.HealthMetrics))
	fmt.Fprintln(w)
	fmt.Fprintln(w, menus.FormatTrends(&report.Trends))
	return nil
}

func init() {
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(reportCmd)
}
