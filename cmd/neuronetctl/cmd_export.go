package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"neuronet/internal/config"
	"neuronet/internal/model"
	"neuronet/internal/stats"
	"neuronet/pkg/neuronet"
)

const defaultExportsDir = "exports"

func newStepsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "steps",
		Short: "Print the outer steps recorded for a run",
		Long: `Print one line per outer step of a run: its tick range, spike
counts, decoded action and reward. Without --run the latest run is used.

Examples:
  neuronetctl steps
  neuronetctl steps --run 3f2c... --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			runID, _ := cmd.Flags().GetString("run")

			steps, err := listSteps(cmd, runID)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), steps)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STEP\tTICKS\tSPIKES\tWINDOW\tACTION\tREWARD\tDONE")
			for _, s := range steps {
				fmt.Fprintf(w, "%d\t[%d,%d)\t%d\t%d\t%s\t%+.3f\t%t\n",
					s.Step, s.StartTick, s.EndTick, s.Spikes, s.Window, s.Action, s.Reward, s.Done)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s steps\n", humanize.Comma(int64(len(steps))))
			return nil
		},
	}
	cmd.Flags().String("run", "", "Run id (default latest)")
	return cmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy a run's artifacts to another directory",
		Long: `Copy the summary, steps, spikes and config of one run from the
artifacts directory to <out>/<run id>. Without --run the latest run is
exported.

Examples:
  neuronetctl export
  neuronetctl export --run 3f2c... --out /tmp/runs`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			runID, _ := cmd.Flags().GetString("run")
			outDir, _ := cmd.Flags().GetString("out")

			cfg, err := config.Load("")
			if err != nil {
				return err
			}
			dir := artifactsDir(storeSettings(cmd, cfg))
			if runID == "" {
				if runID, err = latestRunID(dir); err != nil {
					return err
				}
			}

			exported, err := stats.ExportRunArtifacts(dir, runID, outDir)
			if err != nil {
				return fmt.Errorf("export run %s: %w", runID, err)
			}
			run, ok, err := stats.ReadRunSummary(outDir, runID)
			if err != nil {
				return fmt.Errorf("read exported summary: %w", err)
			}
			if !ok {
				return fmt.Errorf("exported run %s has no summary", runID)
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"run_id": runID,
					"dir":    filepath.Clean(exported),
					"state":  run.State,
					"steps":  run.Steps,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported run_id=%s state=%s steps=%s to=%s\n",
				runID, run.State, humanize.Comma(int64(run.Steps)), filepath.Clean(exported))
			return nil
		},
	}
	cmd.Flags().String("run", "", "Run id (default latest)")
	cmd.Flags().String("out", defaultExportsDir, "Export output directory")
	return cmd
}

func listSteps(cmd *cobra.Command, runID string) ([]model.StepRecord, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, err
	}
	settings := storeSettings(cmd, cfg)
	if isMemoryBackend(settings.Backend) {
		dir := artifactsDir(settings)
		if runID == "" {
			if runID, err = latestRunID(dir); err != nil {
				return nil, err
			}
		}
		steps, ok, err := stats.ReadSteps(dir, runID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("run not found: %s", runID)
		}
		return steps, nil
	}

	client, err := newClient(cmd, cfg)
	if err != nil {
		return nil, err
	}
	defer client.Close()
	return client.Steps(cmd.Context(), neuronet.StepsRequest{RunID: runID, Latest: runID == ""})
}
