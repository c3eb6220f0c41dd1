package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vmunix/fafo/internal/catalog"
	"github.com/vmunix/fafo/internal/facade"
)

func newListsCmd(c *cli) *cobra.Command {
	listsCmd := &cobra.Command{
		Use:     "lists",
		Aliases: []string{"list"},
		Short:   "Manage custom lists",
	}

	lsCmd := &cobra.Command{
		Use:   "ls",
		Short: "Show all lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.exec(cmd, facade.ListLists{})
			if err != nil {
				return err
			}
			lists := res.([]*catalog.List)
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), lists)
			}
			printLists(cmd.OutOrStdout(), lists)
			return nil
		},
	}

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description, _ := cmd.Flags().GetString("description")
			res, err := c.exec(cmd, facade.CreateList{ListName: args[0], Description: description})
			if err != nil {
				return err
			}
			created := res.(facade.Created)
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), created)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created list %s\n", created.ID)
			return nil
		},
	}
	createCmd.Flags().StringP("description", "d", "", "Description")

	showCmd := &cobra.Command{
		Use:   "show <list-id>",
		Short: "Show a list and its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.exec(cmd, facade.GetList{ID: args[0]})
			if err != nil {
				return err
			}
			view := res.(*catalog.ListView)
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), view)
			}
			printListView(cmd.OutOrStdout(), view)
			return nil
		},
	}

	renameCmd := &cobra.Command{
		Use:   "rename <list-id> <name>",
		Short: "Rename a list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.done(cmd, facade.RenameList{ID: args[0], ListName: args[1]}, "Renamed list %s", args[0])
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <list-id>",
		Short: "Delete a list",
		Long:  "Deletes a list. Its items stay in the catalog.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.done(cmd, facade.DeleteList{ID: args[0]}, "Deleted list %s", args[0])
		},
	}

	addCmd := &cobra.Command{
		Use:   "add <list-id> <item-id>",
		Short: "Append an item to a list",
		Long:  "Appends an item to the end of a list. Adding an item that is already a member does nothing.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.done(cmd, facade.AddToList{ListID: args[0], ItemID: args[1]}, "Added %s to %s", args[1], args[0])
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <list-id> <item-id>",
		Short: "Remove an item from a list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.done(cmd, facade.RemoveFromList{ListID: args[0], ItemID: args[1]}, "Removed %s from %s", args[1], args[0])
		},
	}

	listsCmd.AddCommand(lsCmd, createCmd, showCmd, renameCmd, deleteCmd, addCmd, removeCmd)
	return listsCmd
}

func printLists(w io.Writer, lists []*catalog.List) {
	if len(lists) == 0 {
		fmt.Fprintln(w, "No lists.")
		return
	}
	fmt.Fprintf(w, "Lists (%d):\n\n", len(lists))
	fmt.Fprintf(w, "  %-36s %-6s %s\n", "ID", "ITEMS", "NAME")
	fmt.Fprintln(w, rule(80))
	for _, l := range lists {
		fmt.Fprintf(w, "  %-36s %-6d %s\n", l.ID, len(l.Items), truncate(l.Name, 36))
	}
}

func printListView(w io.Writer, v *catalog.ListView) {
	fmt.Fprintf(w, "%s", v.List.Name)
	if v.List.Description != "" {
		fmt.Fprintf(w, " - %s", v.List.Description)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)
	if len(v.Items) == 0 {
		fmt.Fprintln(w, "  (empty)")
	}
	for i, it := range v.Items {
		fmt.Fprintf(w, "  %3d. %-36s %s\n", i+1, it.ID, truncate(it.Title, 40))
	}
	if v.Filtered() {
		fmt.Fprintf(w, "\n  %d of %d stored entries no longer exist\n", len(v.Dangling), v.StoredCount)
	}
}
