package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"neuronet/internal/config"
	"neuronet/internal/model"
	"neuronet/internal/stats"
	"neuronet/pkg/neuronet"
)

var errNoRuns = errors.New("no runs recorded")

type runRow struct {
	RunID       string    `json:"run_id"`
	State       string    `json:"state"`
	Environment string    `json:"environment"`
	Encoder     string    `json:"encoder"`
	Decoder     string    `json:"decoder"`
	Steps       int       `json:"steps"`
	TotalReward float64   `json:"total_reward"`
	StartedAt   time.Time `json:"started_at"`
}

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		Long: `List recorded runs. With the sqlite backend runs come from the
database; with the memory backend they come from the artifacts index.

Examples:
  neuronetctl runs --limit 5
  neuronetctl runs --store sqlite --db neuronet.db --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			limit, _ := cmd.Flags().GetInt("limit")
			if limit < 0 {
				return fmt.Errorf("--limit must be >= 0, got %d", limit)
			}

			rows, err := listRuns(cmd, limit)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}
			printRuns(cmd.OutOrStdout(), rows, time.Now())
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum runs to list (0 for all)")
	return cmd
}

func newSpikesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spikes",
		Short: "Print the spikes recorded for a run",
		Long: `Print the spikes of one run, optionally restricted to ticks in
[from, to). Without --run the latest run is used.

Examples:
  neuronetctl spikes
  neuronetctl spikes --run 3f2c... --from 100 --to 200`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			runID, _ := cmd.Flags().GetString("run")
			from, _ := cmd.Flags().GetUint64("from")
			to, _ := cmd.Flags().GetUint64("to")
			if to != 0 && to < from {
				return fmt.Errorf("invalid tick range [%d,%d)", from, to)
			}

			spikes, err := listSpikes(cmd, runID, from, to)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), spikes)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TICK\tNEURON\tAMPLITUDE")
			for _, s := range spikes {
				fmt.Fprintf(w, "%d\t%d\t%.4f\n", s.Tick, s.Neuron, s.Amplitude)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s spikes\n", humanize.Comma(int64(len(spikes))))
			return nil
		},
	}
	cmd.Flags().String("run", "", "Run id (default latest)")
	cmd.Flags().Uint64("from", 0, "First tick (inclusive)")
	cmd.Flags().Uint64("to", 0, "Last tick (exclusive, 0 for no bound)")
	return cmd
}

func listRuns(cmd *cobra.Command, limit int) ([]runRow, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, err
	}
	settings := storeSettings(cmd, cfg)
	if isMemoryBackend(settings.Backend) {
		entries, err := stats.ListRunIndex(artifactsDir(settings))
		if err != nil {
			return nil, err
		}
		if limit > 0 && len(entries) > limit {
			entries = entries[:limit]
		}
		rows := make([]runRow, 0, len(entries))
		for _, e := range entries {
			started, _ := time.Parse(time.RFC3339Nano, e.CreatedAtUTC)
			rows = append(rows, runRow{
				RunID:       e.RunID,
				State:       e.State,
				Environment: e.Environment,
				Encoder:     e.Encoder,
				Decoder:     e.Decoder,
				Steps:       e.Steps,
				TotalReward: e.TotalReward,
				StartedAt:   started,
			})
		}
		return rows, nil
	}

	client, err := newClient(cmd, cfg)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	runs, err := client.Runs(cmd.Context(), neuronet.RunsRequest{Limit: limit})
	if err != nil {
		return nil, err
	}
	rows := make([]runRow, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, runRow{
			RunID:       r.ID,
			State:       r.State,
			Environment: r.Environment,
			Encoder:     r.Encoder,
			Decoder:     r.Decoder,
			Steps:       r.Steps,
			TotalReward: r.TotalReward,
			StartedAt:   r.StartedAt,
		})
	}
	return rows, nil
}

func listSpikes(cmd *cobra.Command, runID string, from, to uint64) ([]model.SpikeRecord, error) {
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
		all, ok, err := stats.ReadSpikes(dir, runID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("run not found: %s", runID)
		}
		out := make([]model.SpikeRecord, 0, len(all))
		for _, s := range all {
			if s.Tick >= from && (to == 0 || s.Tick < to) {
				out = append(out, s)
			}
		}
		return out, nil
	}

	client, err := newClient(cmd, cfg)
	if err != nil {
		return nil, err
	}
	defer client.Close()
	return client.Spikes(cmd.Context(), neuronet.SpikesRequest{RunID: runID, Latest: runID == "", From: from, To: to})
}

// latestRunID returns the newest run in the artifacts index.
func latestRunID(dir string) (string, error) {
	entries, err := stats.ListRunIndex(dir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errNoRuns
	}
	return entries[0].RunID, nil
}

func printRuns(w io.Writer, rows []runRow, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTATE\tENVIRONMENT\tSTEPS\tREWARD\tSTARTED")
	for _, r := range rows {
		started := "-"
		if !r.StartedAt.IsZero() {
			started = humanize.RelTime(r.StartedAt, now, "ago", "from now")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.3f\t%s\n",
			r.RunID, r.State, r.Environment, humanize.Comma(int64(r.Steps)), r.TotalReward, started)
	}
	_ = tw.Flush()
}

func isMemoryBackend(kind string) bool {
	return kind == "" || kind == "memory"
}

func artifactsDir(settings config.StorageConfig) string {
	if settings.ArtifactsDir == "" {
		return "runs"
	}
	return settings.ArtifactsDir
}
