package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/fafo/internal/events"
	"github.com/vmunix/fafo/internal/facade"
)

func newHistoryCmd(c *cli) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent catalog activity",
		Long: `Shows recorded catalog changes and resolution failures, newest first.
Use --item or --list to narrow to one entity.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			itemID, _ := cmd.Flags().GetString("item")
			listID, _ := cmd.Flags().GetString("list")
			limit, _ := cmd.Flags().GetInt("limit")

			q := facade.History{Limit: limit}
			switch {
			case itemID != "" && listID != "":
				return fmt.Errorf("--item and --list are mutually exclusive")
			case itemID != "":
				q.EntityType, q.EntityID = events.EntityItem, itemID
			case listID != "":
				q.EntityType, q.EntityID = events.EntityList, listID
			}

			res, err := c.exec(cmd, q)
			if err != nil {
				return err
			}
			evs := res.([]events.RawEvent)
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), evs)
			}
			printHistory(cmd.OutOrStdout(), evs)
			return nil
		},
	}
	historyCmd.Flags().String("item", "", "Only events for this item")
	historyCmd.Flags().String("list", "", "Only events for this list")
	historyCmd.Flags().IntP("limit", "l", 20, "Maximum events (0 = all)")

	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			olderThan, _ := cmd.Flags().GetDuration("older-than")
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			n, err := a.history.Prune(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]int64{"pruned": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d events\n", n)
			return nil
		},
	}
	pruneCmd.Flags().Duration("older-than", 90*24*time.Hour, "Delete events older than this")

	historyCmd.AddCommand(pruneCmd)
	return historyCmd
}

func printHistory(w io.Writer, evs []events.RawEvent) {
	if len(evs) == 0 {
		fmt.Fprintln(w, "No activity.")
		return
	}
	fmt.Fprintf(w, "  %-16s %-20s %-6s %s\n", "TIME", "EVENT", "ENTITY", "ID")
	fmt.Fprintln(w, rule(90))
	for _, e := range evs {
		fmt.Fprintf(w, "  %-16s %-20s %-6s %s\n",
			e.OccurredAt.Local().Format("2006-01-02 15:04"), e.EventType, e.EntityType, e.EntityID)
	}
}
