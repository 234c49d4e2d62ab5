package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"neuronet/internal/config"
	"neuronet/pkg/neuronet"
)

const clearScreen = "\033[H\033[2J"

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a sandbox and record it",
		Long: `Run builds the network, encoders, decoder and environment described by
the config file (or the built-in screen demo) and drives them until the
environment is done, --steps steps ran, or a collaborator breaks its
contract. An interrupt stops the run after the current step; the run is
still recorded.

Examples:
  neuronetctl run
  neuronetctl run --config sandbox.yaml --steps 50
  neuronetctl run --render`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			path, _ := cmd.Flags().GetString("config")
			steps, _ := cmd.Flags().GetInt("steps")
			render, _ := cmd.Flags().GetBool("render")

			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			if v, _ := cmd.Flags().GetString("log-level"); v != "" {
				cfg.Logging.Level = v
			}
			if steps < 0 {
				return fmt.Errorf("--steps must be >= 0, got %d", steps)
			}

			client, err := newClient(cmd, cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			out := cmd.OutOrStdout()
			req := neuronet.RunRequest{Config: cfg, MaxSteps: steps}
			if render && !jsonOut {
				req.OnStep = renderer(out, isTerminal(out))
			}

			summary, runErr := client.Run(cmd.Context(), req)
			if summary.RunID == "" {
				return runErr
			}
			if jsonOut {
				if err := writeJSON(out, summary); err != nil {
					return err
				}
			} else {
				printSummary(out, summary)
			}
			if runErr != nil {
				return fmt.Errorf("run %s: %w", summary.RunID, runErr)
			}
			return nil
		},
	}
	cmd.Flags().String("config", "", "Path to a YAML sandbox config")
	cmd.Flags().Int("steps", 0, "Maximum outer steps (overrides run.max_steps)")
	cmd.Flags().Bool("render", false, "Print the environment after every step")
	return cmd
}

func renderer(w io.Writer, tty bool) func(neuronet.StepEvent) {
	return func(ev neuronet.StepEvent) {
		if tty {
			fmt.Fprint(w, clearScreen)
		}
		fmt.Fprintf(w, "step %d  ticks [%d,%d)  spikes %d  action %s  reward %+.2f\n",
			ev.Step, ev.StartTick, ev.EndTick, ev.Spikes, ev.Action, ev.Reward)
		fmt.Fprintln(w, ev.Render)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func printSummary(w io.Writer, s neuronet.RunSummary) {
	fmt.Fprintf(w, "run_id=%s state=%s steps=%s ticks=%s spikes=%s total_reward=%.3f elapsed=%s\n",
		s.RunID,
		s.State,
		humanize.Comma(int64(s.Steps)),
		humanize.Comma(int64(s.EndTick)),
		humanize.Comma(int64(s.Spikes)),
		s.TotalReward,
		s.Elapsed.Round(time.Microsecond),
	)
	fmt.Fprintf(w, "environment=%s encoder=%s decoder=%s\n", s.Environment, s.Encoder, s.Decoder)
	if s.Abort != nil {
		fmt.Fprintf(w, "aborted: %s from %s after step %d: %s\n",
			s.Abort.Kind, s.Abort.Collaborator, s.Abort.LastCompletedStep, s.Abort.Message)
	}
	fmt.Fprintf(w, "artifacts=%s\n", s.ArtifactsDir)
}
