package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/BJPickles/AGSCogs-sub000/internal/listing"
)

func newPropertiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "properties",
		Short: "Inspect tracked properties",
	}

	cmd.AddCommand(
		newPropertiesListCmd(),
		newPropertiesShowCmd(),
		newPropertiesRemoveCmd(),
		newPropertiesSweepCmd(),
	)

	return cmd
}

func newPropertiesListCmd() *cobra.Command {
	var target string
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked properties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPropertiesList(target, activeOnly)
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "filter by monitor target")
	cmd.Flags().BoolVar(&activeOnly, "active", false, "only currently listed properties")

	return cmd
}

func runPropertiesList(target string, activeOnly bool) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	props, err := listing.NewRepository(database).List(listing.ListOptions{
		Target:     target,
		ActiveOnly: activeOnly,
	})
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(props)
	}
	return printPropertyTable(props)
}

func newPropertiesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one tracked property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runPropertiesShow(id)
		},
	}
}

func runPropertiesShow(id int64) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	p, err := listing.NewRepository(database).GetByID(id)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(p)
	}
	printPropertySummary(p)
	return nil
}

func newPropertiesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Stop tracking a property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runPropertiesRemove(id)
		},
	}
}

func runPropertiesRemove(id int64) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	if err := listing.NewRepository(database).Delete(id); err != nil {
		return err
	}

	fmt.Printf("Property #%d removed.\n", id)
	return nil
}

func newPropertiesSweepCmd() *cobra.Command {
	var target string
	var days int

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete vanished properties past retention",
		Long:  "Delete tracked properties that vanished more than the retention window ago. Only database rows are removed; the running bot cleans up its own Discord messages.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPropertiesSweep(target, days)
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "monitor target to sweep (required)")
	cmd.Flags().IntVar(&days, "days", 14, "retention window in days")
	cobra.CheckErr(cmd.MarkFlagRequired("target"))

	return cmd
}

func runPropertiesSweep(target string, days int) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	repo := listing.NewRepository(database)
	cutoff := time.Now().AddDate(0, 0, -days)

	expired, err := repo.ExpiredBefore(target, cutoff)
	if err != nil {
		return err
	}

	for _, p := range expired {
		if err := repo.Delete(p.ID); err != nil {
			return err
		}
	}

	fmt.Printf("Swept %d properties from %q.\n", len(expired), target)
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
