package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BJPickles/AGSCogs-sub000/internal/reminder"
)

func newRemindersCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Show recently posted reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReminders(limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries to show")

	return cmd
}

func runReminders(limit int) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	history, err := reminder.NewRepository(database).History(limit)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(history)
	}

	if len(history) == 0 {
		fmt.Println("No reminders posted yet.")
		return nil
	}

	for _, e := range history {
		fmt.Printf("[%s] %s\n",
			e.Occurrence.Local().Format("2006-01-02 15:04"), e.Name)
	}
	return nil
}
