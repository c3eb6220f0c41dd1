package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vmunix/fafo/internal/config"
	"github.com/vmunix/fafo/internal/facade"
)

// cli holds the state shared by every command of one invocation.
type cli struct {
	configPath  string
	envFile     string
	dbPath      string
	jsonOutput  bool
	showMetrics bool

	cfg *config.Config
	log *slog.Logger
	app *app
}

// run executes one invocation with args and releases everything it opened.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	c := &cli{}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	return errors.Join(err, c.close(stderr))
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fafo",
		Short: "Media catalog and stream resolver",
		Long: `fafo - media catalog and stream resolver

Catalogs direct links, streaming-site links, playlists and live feeds into
categories and ordered lists, and resolves a stored reference into a
currently playable stream URL at playback time.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "Config file (default: discovered)")
	pf.StringVar(&c.envFile, "env-file", "", "Load environment from file (default: ./.env if present)")
	pf.StringVar(&c.dbPath, "db", "", "Override database path")
	pf.BoolVar(&c.jsonOutput, "json", false, "Output as JSON")
	pf.BoolVar(&c.showMetrics, "metrics", false, "Print resolver metrics to stderr on exit")

	root.AddCommand(
		newItemsCmd(c),
		newListsCmd(c),
		newCategoriesCmd(c),
		newStatsCmd(c),
		newSearchCmd(c),
		newClassifyCmd(c),
		newInfoCmd(c),
		newResolveCmd(c),
		newPlayCmd(c),
		newPrefetchCmd(c),
		newPlaylistCmd(c),
		newExportCmd(c),
		newImportCmd(c),
		newHistoryCmd(c),
		newConfigCmd(c),
	)

	root.Version = version
	root.SetVersionTemplate("fafo {{.Version}}\n")
	return root
}

// setup loads the environment and configuration and creates the logger.
// The catalog itself is opened on first use.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if err := loadDotEnv(c.envFile); err != nil {
		return err
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if c.dbPath != "" {
		cfg.Database.Path = c.dbPath
	}
	c.cfg = cfg
	c.log = newLogger(cmd.ErrOrStderr(), cfg.Log)
	return nil
}

// close prints metrics when asked and closes the application if it was opened.
func (c *cli) close(stderr io.Writer) error {
	if c.app == nil {
		return nil
	}
	var err error
	if c.showMetrics {
		err = writeMetrics(stderr, c.app.registry)
	}
	err = errors.Join(err, c.app.Close())
	c.app = nil
	return err
}

func (c *cli) loadConfig() (*config.Config, error) {
	if c.configPath != "" {
		return config.Load(c.configPath)
	}
	path, err := config.Discover()
	if err != nil {
		if os.Getenv("FAFO_CONFIG") != "" {
			return nil, err
		}
		// no config file anywhere: run on defaults
		return config.Default(), nil
	}
	return config.Load(path)
}

// open returns the application, creating it on first call.
func (c *cli) open(ctx context.Context) (*app, error) {
	if c.app != nil {
		return c.app, nil
	}
	a, err := newApp(ctx, c.cfg, c.log)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

// exec runs one facade command against the opened application.
func (c *cli) exec(cmd *cobra.Command, command facade.Command) (any, error) {
	a, err := c.open(cmd.Context())
	if err != nil {
		return nil, err
	}
	resp, err := a.facade.Execute(cmd.Context(), command)
	if err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// loadDotEnv loads path, or ./.env when path is empty and the file exists.
// Variables already set in the environment win.
func loadDotEnv(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// done runs a command that returns no result and prints a confirmation
// unless JSON output was requested.
func (c *cli) done(cmd *cobra.Command, command facade.Command, format string, args ...any) error {
	if _, err := c.exec(cmd, command); err != nil {
		return err
	}
	if c.jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]bool{"ok": true})
	}
	fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
	return nil
}
