package neuronet

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"neuronet/internal/config"
	"neuronet/internal/coordinator"
	"neuronet/internal/logging"
	"neuronet/internal/stats"
)

func newTestClient(t *testing.T) (*Client, string) {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "runs")
	client, err := New(Options{
		StoreKind:    "memory",
		ArtifactsDir: dir,
		Logger:       logging.NewLogger("warn", io.Discard),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, dir
}

func nullConfig(episodeLength int) *config.Config {
	cfg := config.Default()
	cfg.Network.Neurons = 4
	cfg.Run.Outputs = []int{0, 1, 2, 3}
	cfg.Run.TicksPerStep = 3
	cfg.Encoders = []config.ComponentConfig{{Name: "null"}}
	cfg.Decoder = config.ComponentConfig{Name: "noop"}
	cfg.Environment = config.EnvironmentConfig{Name: "null"}
	cfg.Environment.EpisodeLength = episodeLength
	return cfg
}

func TestClientRunDefaultScreen(t *testing.T) {
	client, dir := newTestClient(t)
	ctx := context.Background()

	var events []StepEvent
	summary, err := client.Run(ctx, RunRequest{
		MaxSteps: 5,
		OnStep:   func(ev StepEvent) { events = append(events, ev) },
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.RunID == "" || summary.State != "running" || summary.Steps != 5 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	// The position encoder drives the dot's pixel neuron once per step.
	if summary.Spikes != 5 || summary.EndTick != 50 {
		t.Fatalf("expected 5 spikes over 50 ticks, got %+v", summary)
	}
	if summary.Encoder != "position+half-plane-direction" {
		t.Fatalf("unexpected encoder name: %s", summary.Encoder)
	}
	if len(events) != 5 || events[0].Render == "" || events[4].StartTick != 40 {
		t.Fatalf("unexpected step events: %+v", events)
	}

	if summary.ArtifactsDir != filepath.Join(dir, summary.RunID) {
		t.Fatalf("unexpected artifacts dir: %s", summary.ArtifactsDir)
	}
	stepsCSV, ok, err := stats.ReadSteps(dir, summary.RunID)
	if err != nil || !ok || len(stepsCSV) != 5 {
		t.Fatalf("read steps artifact: ok=%v err=%v steps=%d", ok, err, len(stepsCSV))
	}
	if _, err := os.Stat(filepath.Join(summary.ArtifactsDir, "spikes.jsonl")); !os.IsNotExist(err) {
		t.Fatalf("expected no spike trace at info level, stat err=%v", err)
	}

	runs, err := client.Runs(ctx, RunsRequest{})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != summary.RunID || len(runs[0].Config) == 0 {
		t.Fatalf("unexpected runs: %+v", runs)
	}

	steps, err := client.Steps(ctx, StepsRequest{Latest: true})
	if err != nil {
		t.Fatalf("steps: %v", err)
	}
	if len(steps) != 5 || steps[0].Action != "NOOP" || steps[0].Reward != -1 {
		t.Fatalf("unexpected steps: %+v", steps)
	}

	spikes, err := client.Spikes(ctx, SpikesRequest{RunID: summary.RunID, From: 10, To: 30})
	if err != nil {
		t.Fatalf("spikes: %v", err)
	}
	if len(spikes) != 2 || spikes[0].Tick != 10 || spikes[1].Tick != 20 {
		t.Fatalf("unexpected spikes: %+v", spikes)
	}
}

func TestClientRunTerminates(t *testing.T) {
	client, _ := newTestClient(t)

	summary, err := client.Run(context.Background(), RunRequest{Config: nullConfig(3)})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.State != "terminated" || summary.Steps != 3 || summary.EndTick != 9 || summary.Spikes != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestClientRunWritesSpikeTraceAtDebug(t *testing.T) {
	client, _ := newTestClient(t)

	cfg := nullConfig(2)
	cfg.Logging.Level = "debug"
	summary, err := client.Run(context.Background(), RunRequest{Config: cfg})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(summary.ArtifactsDir, "spikes.jsonl")); err != nil {
		t.Fatalf("expected spike trace: %v", err)
	}
}

func TestClientRunAbortIsPersisted(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	cfg := config.Default()
	cfg.Encoders = []config.ComponentConfig{{Name: "tile-poisson"}}
	summary, err := client.Run(ctx, RunRequest{Config: cfg, MaxSteps: 3})

	var abort *coordinator.AbortError
	if !errors.As(err, &abort) {
		t.Fatalf("expected AbortError, got %v", err)
	}
	if abort.Kind != coordinator.KindNotImplemented {
		t.Fatalf("unexpected abort kind: %s", abort.Kind)
	}
	if summary.State != "aborted" || summary.Abort == nil || summary.Abort.LastCompletedStep != -1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	runs, err := client.Runs(ctx, RunsRequest{Limit: 1})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Abort == nil || runs[0].Abort.Kind != "NotImplemented" {
		t.Fatalf("expected persisted abort, got %+v", runs)
	}
}

func TestClientRunAbortKeepsPartialStepSpikes(t *testing.T) {
	for _, retention := range []uint64{1, 1024} {
		client, _ := newTestClient(t)
		ctx := context.Background()

		cfg := config.Default()
		cfg.Decoder = config.ComponentConfig{Name: "rate-window-put-char"}
		cfg.Network.RetentionTicks = retention
		summary, err := client.Run(ctx, RunRequest{Config: cfg, MaxSteps: 1})
		if err == nil {
			t.Fatalf("retention %d: expected decoder abort", retention)
		}
		if summary.State != "aborted" || summary.EndTick != 10 || summary.Spikes != 1 {
			t.Fatalf("retention %d: unexpected summary: %+v", retention, summary)
		}
		spikes, err := client.Spikes(ctx, SpikesRequest{Latest: true})
		if err != nil {
			t.Fatalf("retention %d: spikes: %v", retention, err)
		}
		if len(spikes) != 1 || spikes[0].Tick != 0 {
			t.Fatalf("retention %d: expected the tick-0 position spike, got %+v", retention, spikes)
		}
	}
}

func TestClientRunCancelled(t *testing.T) {
	client, _ := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := client.Run(ctx, RunRequest{Config: nullConfig(0), MaxSteps: 10})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if summary.State != "running" || summary.Steps != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if runs, _ := client.Runs(context.Background(), RunsRequest{}); len(runs) != 1 {
		t.Fatalf("expected cancelled run to be persisted, got %d", len(runs))
	}
}

func TestClientRunRejectsBadConfig(t *testing.T) {
	client, _ := newTestClient(t)

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{name: "unknown-encoder", mutate: func(c *config.Config) { c.Encoders = []config.ComponentConfig{{Name: "mystery"}} }},
		{name: "unknown-environment", mutate: func(c *config.Config) { c.Environment.Name = "ocean" }},
		{name: "incompatible-components", mutate: func(c *config.Config) {
			c.Environment = config.EnvironmentConfig{Name: "null"}
		}},
		{name: "zero-ticks", mutate: func(c *config.Config) { c.Run.TicksPerStep = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(cfg)
			if _, err := client.Run(context.Background(), RunRequest{Config: cfg}); !errors.Is(err, config.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
		})
	}
	if runs, _ := client.Runs(context.Background(), RunsRequest{}); len(runs) != 0 {
		t.Fatalf("expected no runs persisted, got %d", len(runs))
	}
}

func TestClientQueriesValidateRunSelection(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	if _, err := client.Spikes(ctx, SpikesRequest{Latest: true}); err == nil {
		t.Fatal("expected error with no runs")
	}
	if _, err := client.Steps(ctx, StepsRequest{RunID: "x", Latest: true}); err == nil {
		t.Fatal("expected error for run id and latest")
	}
	if _, err := client.Spikes(ctx, SpikesRequest{RunID: "missing"}); err == nil {
		t.Fatal("expected error for unknown run")
	}
	if _, err := client.Runs(ctx, RunsRequest{Limit: -1}); err == nil {
		t.Fatal("expected limit validation")
	}
}

func TestClientComponents(t *testing.T) {
	client, _ := newTestClient(t)

	found := false
	for _, info := range client.Components() {
		if info.Environment != "simple-screen" {
			continue
		}
		found = true
		if len(info.Encoders) != 5 || len(info.Decoders) != 3 {
			t.Fatalf("unexpected screen components: %+v", info)
		}
	}
	if !found {
		t.Fatal("expected simple-screen in components")
	}
}
