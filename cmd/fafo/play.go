package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/fafo/internal/catalog"
	"github.com/vmunix/fafo/internal/extract"
	"github.com/vmunix/fafo/internal/facade"
	"github.com/vmunix/fafo/internal/policy"
	"github.com/vmunix/fafo/internal/resolver"
)

// withWait bounds the command context by the --wait flag, if set.
func withWait(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	wait, _ := cmd.Flags().GetDuration("wait")
	if wait <= 0 {
		return context.WithCancel(cmd.Context())
	}
	return context.WithTimeout(cmd.Context(), wait)
}

func newResolveCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <item-id>",
		Short: "Resolve an item to a playable stream URL",
		Long: `Resolves an item's source reference. Direct links are returned as is;
streaming-site links go through the configured strategy chain.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var q policy.Quality
			if s, _ := cmd.Flags().GetString("quality"); s != "" {
				parsed, err := policy.ParseQuality(s)
				if err != nil {
					return err
				}
				q = parsed
			}
			ctx, cancel := withWait(cmd)
			defer cancel()
			cmd.SetContext(ctx)

			res, err := c.exec(cmd, facade.ResolvePlayableURL{ItemID: args[0], Quality: q})
			if err != nil {
				return err
			}
			s := res.(*resolver.PlayableStream)
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), s)
			}
			printStream(cmd.OutOrStdout(), s)
			return nil
		},
	}
	cmd.Flags().StringP("quality", "q", "", "Quality (auto, 480p, 720p, 1080p, best; default: configured)")
	cmd.Flags().Duration("wait", 0, "Give up after this long (0 = no limit beyond the configured timeouts)")
	return cmd
}

func newPlayCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play <item-id>",
		Short: "Print the URL a player should open",
		Long: `Resolves an item like resolve, but falls back to the stored reference
when every strategy fails, so the player can still try it directly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withWait(cmd)
			defer cancel()
			cmd.SetContext(ctx)

			res, err := c.exec(cmd, facade.Playback{ItemID: args[0]})
			if err != nil {
				return err
			}
			pr := res.(*facade.PlaybackResult)
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), pr)
			}
			if pr.Fallback {
				fmt.Fprintf(cmd.ErrOrStderr(), "resolution failed, using source reference: %s\n", pr.Cause)
			}
			fmt.Fprintln(cmd.OutOrStdout(), pr.Stream.URL)
			return nil
		},
	}
	cmd.Flags().Duration("wait", 0, "Give up after this long")
	return cmd
}

func newPrefetchCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefetch [item-id...]",
		Short: "Resolve items ahead of playback to warm the cache",
		Long: `Resolves the given items, the members of a list (--list), or every item
in a category (--category) on a bounded worker pool. The results only live
in this process's cache, so this is mostly useful to check that a set of
items still resolves.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			listID, _ := cmd.Flags().GetString("list")
			category, _ := cmd.Flags().GetString("category")

			ids := append([]string(nil), args...)
			if listID != "" {
				res, err := c.exec(cmd, facade.GetList{ID: listID})
				if err != nil {
					return err
				}
				for _, it := range res.(*catalog.ListView).Items {
					ids = append(ids, it.ID)
				}
			}
			if category != "" {
				res, err := c.exec(cmd, facade.ListItems{Category: catalog.Category(category)})
				if err != nil {
					return err
				}
				for _, it := range res.([]*catalog.Item) {
					ids = append(ids, it.ID)
				}
			}
			if len(ids) == 0 {
				return fmt.Errorf("nothing to prefetch: give item ids, --list or --category")
			}

			ctx, cancel := withWait(cmd)
			defer cancel()
			cmd.SetContext(ctx)

			res, err := c.exec(cmd, facade.Prefetch{ItemIDs: ids})
			if err != nil {
				return err
			}
			report := res.(*facade.PrefetchReport)
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), report)
			}
			printPrefetch(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().String("list", "", "Prefetch the members of this list")
	cmd.Flags().StringP("category", "c", "", "Prefetch every item in this category")
	cmd.Flags().Duration("wait", 0, "Give up after this long")
	return cmd
}

func newPlaylistCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "playlist <item-id>",
		Short: "List the videos of a playlist item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.exec(cmd, facade.ExpandPlaylist{ItemID: args[0]})
			if err != nil {
				return err
			}
			pl := res.(*extract.Playlist)
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), pl)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Playlist %s (%d entries):\n\n", pl.ID, len(pl.Entries))
			for i, e := range pl.Entries {
				fmt.Fprintf(w, "  %3d. %-11s %s\n", i+1, e.VideoID, truncate(e.Title, 60))
			}
			return nil
		},
	}
}

func printStream(w io.Writer, s *resolver.PlayableStream) {
	fmt.Fprintf(w, "URL:      %s\n", s.URL)
	fmt.Fprintf(w, "Quality:  %s\n", s.QualityLabel)
	fmt.Fprintf(w, "Class:    %s\n", s.Class)
	if s.Strategy != "" {
		fmt.Fprintf(w, "Strategy: %s\n", s.Strategy)
	}
	if !s.ExpiresAt.IsZero() {
		fmt.Fprintf(w, "Expires:  %s\n", s.ExpiresAt.Format(time.RFC3339))
	}
	if s.Cached {
		fmt.Fprintln(w, "Cached:   yes")
	}
}

func printPrefetch(w io.Writer, r *facade.PrefetchReport) {
	for _, res := range r.Results {
		if res.Err != nil {
			fmt.Fprintf(w, "  FAIL %-36s %s\n", res.ItemID, res.Error)
			continue
		}
		fmt.Fprintf(w, "  ok   %-36s %s\n", res.ItemID, res.Stream.QualityLabel)
	}
	fmt.Fprintf(w, "\n%d resolved, %d failed\n", r.Resolved, r.Failed)
}
