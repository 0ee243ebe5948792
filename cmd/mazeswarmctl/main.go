package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"mazeswarm/internal/config"
	"mazeswarm/internal/logging"
	api "mazeswarm/pkg/mazeswarm"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mazeswarmctl",
		Short: "Swarm maze exploration with a shared pheromone map",
		Long: `mazeswarmctl runs a flock of agents through a maze. The agents share a
collective memory map of the passages they have seen and lay pheromone on
nodes that still lead somewhere new. A run ends when the shortest known path
from entrance to exit is found or the tick budget is spent.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.mazeswarm/config.yaml)")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: warn, info, debug, trace")
	rootCmd.PersistentFlags().String("store", "", "Run store: memory or sqlite")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newExperimentCmd(),
		newRunsCmd(),
		newShowCmd(),
		newMapCmd(),
		newExportCmd(),
		newDeleteCmd(),
	)
	return rootCmd
}

// env bundles what every command needs: the resolved config, a logger and
// an open client.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	client *api.Client
	json   bool
}

func (e *env) Close() error {
	return e.client.Close()
}

func setup(cmd *cobra.Command) (*env, error) {
	path, _ := cmd.Flags().GetString("config")
	jsonOut, _ := cmd.Flags().GetBool("json")
	level, _ := cmd.Flags().GetString("log-level")
	storeKind, _ := cmd.Flags().GetString("store")
	dbPath, _ := cmd.Flags().GetString("db")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if level != "" {
		cfg.Logging.Level = level
	}
	if storeKind != "" {
		cfg.Storage.Kind = storeKind
	}
	if dbPath != "" {
		cfg.Storage.Path = dbPath
	}

	logger := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	client, err := api.New(api.Options{
		StoreKind:  cfg.Storage.Kind,
		DBPath:     cfg.Storage.Path,
		ReportsDir: cfg.Run.ReportDir,
		TraceFile:  cfg.Run.TraceFile,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, client: client, json: jsonOut}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
