package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vmunix/fafo/internal/catalog"
	"github.com/vmunix/fafo/internal/extract"
	"github.com/vmunix/fafo/internal/facade"
)

func newCategoriesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Show item counts per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.exec(cmd, facade.ListCategories{})
			if err != nil {
				return err
			}
			counts := res.(map[catalog.Category]int)
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), counts)
			}
			w := cmd.OutOrStdout()
			for _, cat := range catalog.Categories {
				fmt.Fprintf(w, "  %-16s %d\n", cat, counts[cat])
			}
			return nil
		},
	}
}

func newStatsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.exec(cmd, facade.Stats{})
			if err != nil {
				return err
			}
			st := res.(*catalog.Stats)
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), st)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Items:        %d\n", st.Items)
			fmt.Fprintf(w, "Lists:        %d\n", st.Lists)
			fmt.Fprintf(w, "List entries: %d\n", st.ListEntries)
			fmt.Fprintln(w, "\nBy category:")
			for _, cat := range catalog.Categories {
				fmt.Fprintf(w, "  %-16s %d\n", cat, st.Categories[cat])
			}
			return nil
		},
	}
}

func newSearchCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search item titles and descriptions",
		Long: `Searches item titles and descriptions, ignoring case and accents.
Title matches rank first, then description matches, then near-miss titles.

With --remote the video platform is searched through yt-dlp instead of the
catalog. playback.safe_search hides age-restricted results.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			remote, _ := cmd.Flags().GetBool("remote")
			if remote {
				return c.searchRemote(cmd, args[0], limit)
			}
			res, err := c.exec(cmd, facade.Search{Query: args[0], Limit: limit})
			if err != nil {
				return err
			}
			results := res.([]catalog.SearchResult)
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), results)
			}
			w := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(w, "No matches.")
				return nil
			}
			fmt.Fprintf(w, "  %-36s %-6s %s\n", "ID", "SCORE", "TITLE")
			fmt.Fprintln(w, rule(80))
			for _, r := range results {
				fmt.Fprintf(w, "  %-36s %-6.2f %s\n", r.Item.ID, r.Score, truncate(r.Item.Title, 36))
			}
			return nil
		},
	}
	cmd.Flags().IntP("limit", "l", 20, "Maximum results (0 = all, or the platform default with --remote)")
	cmd.Flags().BoolP("remote", "r", false, "Search the video platform instead of the catalog")
	return cmd
}

func (c *cli) searchRemote(cmd *cobra.Command, query string, limit int) error {
	res, err := c.exec(cmd, facade.SearchRemote{Query: query, Limit: limit})
	if err != nil {
		return err
	}
	results := res.([]extract.VideoInfo)
	if c.jsonOutput {
		return printJSON(cmd.OutOrStdout(), results)
	}
	w := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(w, "No results.")
		return nil
	}
	fmt.Fprintf(w, "  %-11s %-8s %-20s %s\n", "VIDEO", "LENGTH", "UPLOADER", "TITLE")
	fmt.Fprintln(w, rule(80))
	for _, v := range results {
		fmt.Fprintf(w, "  %-11s %-8s %-20s %s\n", v.ID, clock(v.Duration), truncate(v.Uploader, 20), truncate(v.Title, 40))
	}
	return nil
}

func newInfoCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "info <reference>",
		Short: "Show platform metadata for a streaming-site reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.exec(cmd, facade.VideoInfo{Reference: args[0]})
			if err != nil {
				return err
			}
			v := res.(*extract.VideoInfo)
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), v)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Title:     %s\n", v.Title)
			fmt.Fprintf(w, "URL:       %s\n", v.URL)
			if v.Uploader != "" {
				fmt.Fprintf(w, "Uploader:  %s\n", v.Uploader)
			}
			if v.IsLive {
				fmt.Fprintln(w, "Length:    live")
			} else {
				fmt.Fprintf(w, "Length:    %s\n", clock(v.Duration))
			}
			if v.Thumbnail != "" {
				fmt.Fprintf(w, "Thumbnail: %s\n", v.Thumbnail)
			}
			if v.Description != "" {
				fmt.Fprintf(w, "\n%s\n", v.Description)
			}
			return nil
		},
	}
}

type classification struct {
	Reference  string `json:"source_reference"`
	Class      string `json:"class"`
	VideoID    string `json:"video_id,omitempty"`
	PlaylistID string `json:"playlist_id,omitempty"`
}

func newClassifyCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <reference>",
		Short: "Show how a reference would be resolved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			ref := args[0]
			out := classification{
				Reference:  ref,
				Class:      string(a.resolver.Classify(ref)),
				VideoID:    extract.VideoID(ref),
				PlaylistID: extract.PlaylistID(ref),
			}
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), out)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Class:       %s\n", out.Class)
			if out.VideoID != "" {
				fmt.Fprintf(w, "Video ID:    %s\n", out.VideoID)
			}
			if out.PlaylistID != "" {
				fmt.Fprintf(w, "Playlist ID: %s\n", out.PlaylistID)
			}
			return nil
		},
	}
}
