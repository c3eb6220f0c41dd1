package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmunix/fafo/internal/catalog"
	"github.com/vmunix/fafo/internal/facade"
)

func newExportCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog as a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			output, _ := cmd.Flags().GetString("output")
			res, err := c.exec(cmd, facade.ExportCatalog{})
			if err != nil {
				return err
			}
			data := res.([]byte)
			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("write snapshot: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported catalog to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")
	return cmd
}

func newImportCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load a JSON snapshot into the catalog",
		Long: `Loads a snapshot written by export. Use "-" to read from stdin.

  merge    upsert items and lists by id, keep everything else (default)
  replace  discard the current catalog first`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, _ := cmd.Flags().GetString("mode")
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			res, err := c.exec(cmd, facade.ImportCatalog{Snapshot: data, Mode: catalog.ImportMode(mode)})
			if err != nil {
				return err
			}
			ir := res.(*catalog.ImportResult)
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), ir)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d items and %d lists (%s)\n", ir.Items, ir.Lists, ir.Mode)
			return nil
		},
	}
	cmd.Flags().StringP("mode", "m", string(catalog.ImportMerge), "Import mode (merge, replace)")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return data, nil
}
