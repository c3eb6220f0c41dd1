package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vmunix/fafo/internal/catalog"
	"github.com/vmunix/fafo/internal/extract"
	"github.com/vmunix/fafo/internal/facade"
	"github.com/vmunix/fafo/internal/resolver"
)

func newItemsCmd(c *cli) *cobra.Command {
	itemsCmd := &cobra.Command{
		Use:     "items",
		Aliases: []string{"item"},
		Short:   "Manage media items",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List items in creation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			category, _ := cmd.Flags().GetString("category")
			kind, _ := cmd.Flags().GetString("kind")
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")

			res, err := c.exec(cmd, facade.ListItems{
				Category: catalog.Category(category),
				Kind:     catalog.Kind(kind),
				Limit:    limit,
				Offset:   offset,
			})
			if err != nil {
				return err
			}
			items := res.([]*catalog.Item)
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), items)
			}
			printItems(cmd.OutOrStdout(), items)
			return nil
		},
	}
	listCmd.Flags().StringP("category", "c", "", "Filter by category (movies, tv_series, live_tv, streaming_site)")
	listCmd.Flags().StringP("kind", "k", "", "Filter by kind (direct_link, streaming_site, playlist, live_feed)")
	listCmd.Flags().IntP("limit", "l", 0, "Maximum number of items to return (0 = all)")
	listCmd.Flags().Int("offset", 0, "Number of items to skip")

	addCmd := &cobra.Command{
		Use:   "add <title> <source-reference>",
		Short: "Add an item",
		Long: `Adds a media item. Kind and category are inferred from the reference
when not given: playlists and streaming-site links go to streaming_site,
anything else is a direct link filed under movies.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			kind, _ := cmd.Flags().GetString("kind")
			category, _ := cmd.Flags().GetString("category")
			description, _ := cmd.Flags().GetString("description")
			thumbnail, _ := cmd.Flags().GetString("thumbnail")

			k, cat := inferKind(args[1], a.resolver.Classify(args[1]))
			if kind != "" {
				k = catalog.Kind(kind)
			}
			if category != "" {
				cat = catalog.Category(category)
			}

			res, err := c.exec(cmd, facade.CreateItem{
				Title:           args[0],
				SourceReference: args[1],
				Kind:            k,
				Category:        cat,
				Description:     description,
				Thumbnail:       thumbnail,
			})
			if err != nil {
				return err
			}
			created := res.(facade.Created)
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), created)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s, %s)\n", created.ID, k, cat)
			return nil
		},
	}
	addCmd.Flags().StringP("kind", "k", "", "Item kind (default: inferred)")
	addCmd.Flags().StringP("category", "c", "", "Category (default: inferred)")
	addCmd.Flags().StringP("description", "d", "", "Description")
	addCmd.Flags().String("thumbnail", "", "Thumbnail URL")

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.exec(cmd, facade.GetItem{ID: args[0]})
			if err != nil {
				return err
			}
			it := res.(*catalog.Item)
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), it)
			}
			printItem(cmd.OutOrStdout(), it)
			return nil
		},
	}

	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change an item's title, description or category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u := facade.UpdateItem{ID: args[0]}
			if cmd.Flags().Changed("title") {
				v, _ := cmd.Flags().GetString("title")
				u.Title = &v
			}
			if cmd.Flags().Changed("description") {
				v, _ := cmd.Flags().GetString("description")
				u.Description = &v
			}
			if cmd.Flags().Changed("category") {
				v, _ := cmd.Flags().GetString("category")
				cat := catalog.Category(v)
				u.Category = &cat
			}
			res, err := c.exec(cmd, u)
			if err != nil {
				return err
			}
			it := res.(*catalog.Item)
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), it)
			}
			printItem(cmd.OutOrStdout(), it)
			return nil
		},
	}
	updateCmd.Flags().String("title", "", "New title")
	updateCmd.Flags().String("description", "", "New description")
	updateCmd.Flags().String("category", "", "New category")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item",
		Long:  "Deletes an item. Lists that contain it keep the id and filter it out when shown.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.done(cmd, facade.DeleteItem{ID: args[0]}, "Deleted %s", args[0])
		},
	}

	itemsCmd.AddCommand(listCmd, addCmd, getCmd, updateCmd, deleteCmd)
	return itemsCmd
}

// inferKind guesses the kind and category of a new item from its reference.
func inferKind(ref string, class resolver.Class) (catalog.Kind, catalog.Category) {
	switch {
	case extract.IsPlaylist(ref):
		return catalog.KindPlaylist, catalog.CategoryStreamingSite
	case class == resolver.ClassStreamingSite:
		return catalog.KindStreamingSite, catalog.CategoryStreamingSite
	default:
		return catalog.KindDirectLink, catalog.CategoryMovies
	}
}

func printItems(w io.Writer, items []*catalog.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No items.")
		return
	}
	fmt.Fprintf(w, "Items (%d):\n\n", len(items))
	fmt.Fprintf(w, "  %-36s %-15s %-15s %s\n", "ID", "CATEGORY", "KIND", "TITLE")
	fmt.Fprintln(w, rule(100))
	for _, it := range items {
		fmt.Fprintf(w, "  %-36s %-15s %-15s %s\n", it.ID, it.Category, it.Kind, truncate(it.Title, 40))
	}
}

func printItem(w io.Writer, it *catalog.Item) {
	fmt.Fprintf(w, "ID:          %s\n", it.ID)
	fmt.Fprintf(w, "Title:       %s\n", it.Title)
	fmt.Fprintf(w, "Reference:   %s\n", it.SourceReference)
	fmt.Fprintf(w, "Kind:        %s\n", it.Kind)
	fmt.Fprintf(w, "Category:    %s\n", it.Category)
	if it.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", it.Description)
	}
	if it.Thumbnail != "" {
		fmt.Fprintf(w, "Thumbnail:   %s\n", it.Thumbnail)
	}
	fmt.Fprintf(w, "Added:       %s\n", it.CreatedAt.Format("2006-01-02 15:04"))
}
