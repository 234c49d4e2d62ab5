package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"neuronet/internal/config"
	"neuronet/internal/logging"
	"neuronet/pkg/neuronet"
)

var version = "0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals()...)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "neuronetctl",
		Short: "Spiking network sandbox",
		Long: `neuronetctl runs leaky integrate-and-fire networks against small
environments and inspects the recorded runs.

A run observes the environment, encodes the observation into spike
injections, simulates ticks_per_step ticks, decodes the output neurons'
spikes into an action and applies it, until the environment is done or
max_steps is reached.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("store", "", "Store backend: memory or sqlite (default from config)")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path")
	rootCmd.PersistentFlags().String("artifacts-dir", "", "Directory for run artifacts (default runs)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug, trace, warn")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newRunsCmd(),
		newSpikesCmd(),
		newStepsCmd(),
		newExportCmd(),
		newComponentsCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"version": version})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "neuronetctl version %s\n", version)
			return nil
		},
	}
}

// storeSettings resolves store flags over the config's storage section.
func storeSettings(cmd *cobra.Command, cfg *config.Config) config.StorageConfig {
	settings := cfg.Storage
	if v, _ := cmd.Flags().GetString("store"); v != "" {
		settings.Backend = v
	}
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		settings.Path = v
	}
	if v, _ := cmd.Flags().GetString("artifacts-dir"); v != "" {
		settings.ArtifactsDir = v
	}
	return settings
}

func newClient(cmd *cobra.Command, cfg *config.Config) (*neuronet.Client, error) {
	settings := storeSettings(cmd, cfg)
	level := cfg.Logging.Level
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		level = v
	}
	client, err := neuronet.New(neuronet.Options{
		StoreKind:    settings.Backend,
		DBPath:       settings.Path,
		ArtifactsDir: settings.ArtifactsDir,
		Logger:       logging.NewLogger(level, cmd.ErrOrStderr()),
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
