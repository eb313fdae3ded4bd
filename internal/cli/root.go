// Package cli defines the cobra command tree for agscogs.
package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/BJPickles/AGSCogs-sub000/internal/config"
	"github.com/BJPickles/AGSCogs-sub000/internal/db"
)

var (
	flagFormat string
	flagDB     string
	flagConfig string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "agscogs",
		Short:         "Property alerts, activities, and server watch for Discord",
		Long:          "A Discord bot that watches property searches for new and changed listings, hosts social activities with RSVPs, polls game servers, and posts weekly reminders.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: ~/.config/agscogs/agscogs.db)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path (default: ~/.config/agscogs/config.yaml)")

	root.AddCommand(
		newRunCmd(),
		newPropertiesCmd(),
		newActivitiesCmd(),
		newServersCmd(),
		newRemindersCmd(),
		newVersionCmd(),
	)

	return root
}

// openDB opens the SQLite database using the --db flag or default path.
func openDB() (*sql.DB, error) {
	path := flagDB
	if path == "" {
		var err error
		path, err = db.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return db.Open(path)
}

// loadConfig reads the config file from the --config flag or default
// path.
func loadConfig() (*config.Config, error) {
	path := flagConfig
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return config.Load(path)
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
