package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vladimiradmaev/health-dialogue/internal/domain"
	"github.com/vladimiradmaev/health-dialogue/internal/services"
)

var trendInterval time.Duration

var trendCmd = &cobra.Command{
	Use:   "trend <value>...",
	Short: "Analyze a series of metric values",
	Long: `Analyze a series of values given oldest first.

The values are spaced --interval apart, ending now. The output shows the
direction of the accumulated change, its magnitude and the volatility of
the step-to-step changes.

EXAMPLES:

  healthctl trend 82 81.4 80.9 81.1
  healthctl trend 70 72 --interval 168h`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		points, err := parsePoints(args, time.Now().UTC(), trendInterval)
		if err != nil {
			return err
		}
		printTrend(cmd.OutOrStdout(), services.AnalyzeTrend(points))
		return nil
	},
}

// parsePoints spaces values interval apart so the last one falls on end
func parsePoints(values []string, end time.Time, interval time.Duration) ([]domain.TrendPoint, error) {
	if interval <= 0 {
		return nil, errors.New("interval must be positive")
	}
	points := make([]domain.TrendPoint, 0, len(values))
	start := end.Add(-time.Duration(len(values)-1) * interval)
	for i, raw := range values {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q", raw)
		}
		points = append(points, domain.TrendPoint{
			Timestamp: start.Add(time.Duration(i) * interval),
			Value:     v,
		})
	}
	return points, nil
}

func directionColor(d domain.TrendDirection) *color.Color {
	switch d {
	case domain.TrendIncreasing:
		return color.New(color.FgRed)
	case domain.TrendDecreasing:
		return color.New(color.FgGreen)
	default:
		return color.New(color.Faint)
	}
}

func printTrend(w io.Writer, a domain.TrendAnalysis) {
	fmt.Fprintf(w, "%s magnitude=%.2f volatility=%.2f\n",
		directionColor(a.Direction).Sprint(a.Direction), a.Magnitude, a.Volatility)
}

func init() {
	trendCmd.Flags().DurationVar(&trendInterval, "interval", 24*time.Hour, "time between consecutive values")
	rootCmd.AddCommand(trendCmd)
}
