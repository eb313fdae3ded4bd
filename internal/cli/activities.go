package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/BJPickles/AGSCogs-sub000/internal/activity"
)

func newActivitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activities",
		Short: "List upcoming activities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActivities()
		},
	}
}

func runActivities() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	activities, err := activity.NewRepository(database).
		Upcoming(cfg.Discord.GuildID, time.Now())
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(activities)
	}

	if len(activities) == 0 {
		fmt.Println("No upcoming activities.")
		return nil
	}

	for _, a := range activities {
		fmt.Printf("#%d %s — %s\n", a.ID, a.Title,
			a.StartsAt.Local().Format("Mon 2 Jan 15:04"))
		if a.Location != "" {
			fmt.Printf("  at %s\n", a.Location)
		}
	}
	return nil
}
