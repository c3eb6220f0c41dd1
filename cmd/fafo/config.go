package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/vmunix/fafo/internal/config"
)

func newConfigCmd(c *cli) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		// config subcommands load files themselves, so skip the shared setup
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadDotEnv(c.envFile)
		},
	}

	testCmd := &cobra.Command{
		Use:   "test [path]",
		Short: "Validate configuration file",
		Long:  "Validates config.toml syntax, settings and environment variable substitution without opening the catalog.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := c.configFile(args)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Validating %s...\n\n", path)

			cfg, err := config.Load(path)
			if err != nil {
				var cfgErr *config.ConfigError
				if errors.As(err, &cfgErr) {
					printConfigErrors(w, cfgErr)
					return fmt.Errorf("configuration invalid")
				}
				return fmt.Errorf("failed to load config: %w", err)
			}
			printConfigSummary(w, cfg)
			fmt.Fprintln(w, "\nConfiguration valid!")
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write an example configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			path := "config.toml"
			if len(args) > 0 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			}
			if err := config.WriteDefault(path); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().Bool("force", false, "Overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long:  "Prints the configuration after environment substitution and defaults.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), cfg)
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
		},
	}

	configCmd.AddCommand(testCmd, initCmd, showCmd)
	return configCmd
}

// configFile picks the file config test should read: the argument, then
// --config, then the discovered file.
func (c *cli) configFile(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if c.configPath != "" {
		return c.configPath, nil
	}
	path, err := config.Discover()
	if err != nil {
		return "", err
	}
	return path, nil
}

func printConfigErrors(w io.Writer, e *config.ConfigError) {
	sections := []struct {
		title string
		items []string
	}{
		{"Missing environment variables:", e.Missing},
		{"Unknown keys:", e.Unknown},
		{"Validation errors:", e.Errors},
	}
	for _, s := range sections {
		if len(s.items) == 0 {
			continue
		}
		fmt.Fprintln(w, s.title)
		for _, item := range s.items {
			fmt.Fprintf(w, "  - %s\n", item)
		}
		fmt.Fprintln(w)
	}
}

func printConfigSummary(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Configuration Summary:")
	fmt.Fprintf(w, "  Log:        %s (%s)\n", cfg.Log.Level, cfg.Log.Format)
	fmt.Fprintf(w, "  Database:   %s\n", cfg.Database.Path)

	quality := cfg.Playback.QualityPreference
	if quality == "" {
		quality = "auto"
	}
	fmt.Fprintf(w, "  Quality:    %s", quality)
	if cfg.Playback.Region != "" {
		fmt.Fprintf(w, " (region: %s)", cfg.Playback.Region)
	}
	fmt.Fprintln(w)

	var chain []string
	for _, name := range []string{cfg.Strategies.Primary, cfg.Strategies.Secondary} {
		if name != "" {
			chain = append(chain, name)
		}
	}
	if len(chain) == 0 {
		chain = append(chain, "(none)")
	}
	fmt.Fprintf(w, "  Strategies: %s\n", strings.Join(chain, " -> "))
	if cfg.Strategies.Remote.BaseURL != "" {
		fmt.Fprintf(w, "  Backend:    %s\n", cfg.Strategies.Remote.BaseURL)
	}
	if len(cfg.Resolver.SitePatterns) > 0 {
		fmt.Fprintf(w, "  Sites:      %d custom patterns\n", len(cfg.Resolver.SitePatterns))
	}
}
