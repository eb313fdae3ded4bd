package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/BJPickles/AGSCogs-sub000/internal/discord"
	"github.com/BJPickles/AGSCogs-sub000/internal/listing"
)

// printJSON marshals v as indented JSON and writes it to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printPropertySummary prints a single tracked property in text format.
func printPropertySummary(p *listing.TrackedProperty) {
	fmt.Printf("Property #%d\n", p.ID)
	fmt.Printf("  Target:   %s\n", p.Target)
	fmt.Printf("  Address:  %s\n", p.Address)
	fmt.Printf("  URL:      %s\n", p.URL)
	fmt.Printf("  Price:    %s\n", discord.FormatPrice(p.Price))
	if p.PropertyType != "" {
		fmt.Printf("  Type:     %s\n", p.PropertyType)
	}
	if p.Agent != "" {
		fmt.Printf("  Agent:    %s\n", p.Agent)
	}
	if p.UnderOffer {
		fmt.Printf("  Status:   under offer\n")
	}
	if !p.Active && p.VanishedAt != nil {
		fmt.Printf("  Vanished: %s\n", p.VanishedAt.Local().Format("2006-01-02"))
	}
	fmt.Printf("  Seen:     %s to %s\n",
		p.FirstSeen.Local().Format("2006-01-02"),
		p.LastSeen.Local().Format("2006-01-02"))
}

// printPropertyTable prints tracked properties as a formatted table.
func printPropertyTable(props []*listing.TrackedProperty) error {
	if len(props) == 0 {
		fmt.Println("No properties found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tTARGET\tADDRESS\tPRICE\tTYPE\tSTATUS"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t------\t-------\t-----\t----\t------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, p := range props {
		status := "listed"
		switch {
		case !p.Active:
			status = "vanished"
		case p.UnderOffer:
			status = "under offer"
		}

		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Target, truncate(p.Address, 40),
			discord.FormatPrice(p.Price), p.PropertyType, status); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Printf("\nTotal: %d properties\n", len(props))
	return nil
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
