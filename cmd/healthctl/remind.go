package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vladimiradmaev/health-dialogue/internal/logger"
	"github.com/vladimiradmaev/health-dialogue/internal/services"
)

var remindCmd = &cobra.Command{
	Use:   "remind <user-id>",
	Short: "Schedule the default daily reminders for a user",
	Long: `Create the default reminders (exercise and health tip) for the next day.

The reminders become visible in the bot and the API once their time has come.`,
	Args: cobra.ExactArgs(1),
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

		svc := services.NewNotificationService(stores.Profiles, stores.Notifications, logger.GetLogger())
		created, err := svc.ScheduleDefaultReminders(cmd.Context(), userID)
		if err != nil {
			return err
		}

		faint := color.New(color.Faint)
		for _, n := range created {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n",
				faint.Sprint(n.ID[:8]),
				faint.Sprint(n.ScheduledFor.Local().Format("2006-01-02 15:04")),
				n.Title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(remindCmd)
}
