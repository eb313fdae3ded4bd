package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/BJPickles/AGSCogs-sub000/internal/gamewatch"
)

func newServersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "servers",
		Short: "Show last known game server health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServers()
		},
	}
}

func runServers() error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	statuses, err := gamewatch.NewRepository(database).All()
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(statuses)
	}

	if len(statuses) == 0 {
		fmt.Println("No servers checked yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "NAME\tSTATUS\tLATENCY\tLAST CHECKED"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}

	for _, s := range statuses {
		status := "down"
		if s.Up {
			status = "up"
		}
		latency := "-"
		if s.LatencyMS != nil {
			latency = fmt.Sprintf("%d ms", *s.LatencyMS)
		}
		checked := "-"
		if s.LastChecked != nil {
			checked = s.LastChecked.Local().Format("2006-01-02 15:04:05")
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			s.Name, status, latency, checked); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	return w.Flush()
}
