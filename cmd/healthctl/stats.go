package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vladimiradmaev/health-dialogue/internal/logger"
	"github.com/vladimiradmaev/health-dialogue/internal/services"
)

var statsCmd = &cobra.Command{
	Use:   "stats <user-id>",
	Short: "Show chat and notification counts for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseUserID(args[0])
		if err != nil {
			return err
		}

		stores, closeStores, err := openPostgresStores()
		if err != nil {
			return err
		}
		defer closeStores()

		svc := services.NewUserService(stores.Users, stores.Profiles, stores.Chats, stores.Notifications, logger.GetLogger())
		stats, err := svc.GetUserStats(cmd.Context(), userID)
		if err != nil {
			return err
		}
		printStats(cmd.OutOrStdout(), stats)
		return nil
	},
}

func printStats(w io.Writer, stats *services.UserStats) {
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)

	bold.Fprintln(w, "Chats")
	printCounts(w, stats.ChatStats)
	bold.Fprintln(w, "Notifications")
	printCounts(w, stats.NotificationStats)

	if len(stats.RecentActivity) > 0 {
		bold.Fprintln(w, "Recent activity")
		for _, t := range stats.RecentActivity {
			fmt.Fprintf(w, "  %s %s %s\n",
				faint.Sprint(t.CreatedAt.Local().Format("2006-01-02 15:04")),
				padRight(string(t.Category), 22),
				truncate(t.Message, 50))
		}
	}
}

func printCounts[K ~string](w io.Writer, counts map[K]int64) {
	if len(counts) == 0 {
		fmt.Fprintln(w, "  none")
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s %d\n", padRight(k, 22), counts[K(k)])
	}
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func padRight(s string, length int) string {
	for len(s) < length {
		s += " "
	}
	return s
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
