package neuronet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"neuronet/internal/config"
	"neuronet/internal/coordinator"
	netio "neuronet/internal/io"
	"neuronet/internal/logging"
	"neuronet/internal/model"
	"neuronet/internal/scape"
	"neuronet/internal/snn"
	"neuronet/internal/stats"
	"neuronet/internal/storage"
)

const defaultArtifactsDir = "runs"

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
	// Logger defaults to an info-level text logger on stderr.
	Logger *slog.Logger
}

type Client struct {
	store        storage.Store
	artifactsDir string
	logger       *slog.Logger
	now          func() time.Time
}

type RunRequest struct {
	// Config defaults to config.Default().
	Config *config.Config
	// MaxSteps overrides Config.Run.MaxSteps when > 0.
	MaxSteps int
	// OnStep is called after every completed outer step.
	OnStep func(StepEvent)
}

// StepEvent is the per-step view handed to RunRequest.OnStep.
type StepEvent struct {
	Step      int
	StartTick uint64
	EndTick   uint64
	Spikes    int
	Window    int
	Action    string
	Reward    float64
	Done      bool
	Render    string
}

type RunSummary struct {
	RunID        string
	State        string
	Steps        int
	TotalReward  float64
	EndTick      uint64
	Spikes       int
	Environment  string
	Encoder      string
	Decoder      string
	Abort        *model.AbortRef
	ArtifactsDir string
	Elapsed      time.Duration
}

type RunsRequest struct {
	Limit int
}

type SpikesRequest struct {
	RunID  string
	Latest bool
	From   uint64
	// To is exclusive; zero means no upper bound.
	To uint64
}

type StepsRequest struct {
	RunID  string
	Latest bool
}

// ComponentInfo lists the encoders and decoders usable with one environment.
type ComponentInfo struct {
	Environment string
	Encoders    []string
	Decoders    []string
}

func New(opts Options) (*Client, error) {
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLogger("info", os.Stderr)
	}

	store, err := storage.NewStore(opts.StoreKind, opts.DBPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(context.Background()); err != nil {
		_ = storage.CloseIfSupported(store)
		return nil, fmt.Errorf("init store: %w", err)
	}

	return &Client{
		store:        store,
		artifactsDir: artifactsDir,
		logger:       logger,
		now:          time.Now,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Run builds a network and its collaborators from the request config and
// drives one coordinator run to completion. The run, its steps and its
// spikes are persisted and written as artifacts even when the run aborts
// or ctx is cancelled; in those cases the summary is returned along with
// the error.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	cfg := req.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return RunSummary{}, err
	}
	maxSteps := cfg.Run.MaxSteps
	if req.MaxSteps > 0 {
		maxSteps = req.MaxSteps
	}

	sb, err := build(cfg)
	if err != nil {
		return RunSummary{}, err
	}

	runID := uuid.NewString()
	runDir := filepath.Join(c.artifactsDir, runID)
	logger := c.logger.With("run_id", runID)
	trace := logging.NewSpikeTraceLogger(runDir, cfg.Logging.Level)
	defer func() { _ = trace.Close() }()

	var (
		steps  []model.StepRecord
		spikes []model.SpikeRecord
	)
	observer := func(r coordinator.StepReport) {
		action := fmt.Sprint(r.Action)
		steps = append(steps, model.StepRecord{
			VersionedRecord: storage.Versioned(),
			RunID:           runID,
			Step:            r.Step,
			StartTick:       r.StartTick,
			EndTick:         r.EndTick,
			Spikes:          len(r.Spikes),
			Window:          r.Window.Len(),
			Action:          action,
			Reward:          r.Outcome.Reward,
			Done:            r.Outcome.Done,
		})
		spikes = append(spikes, spikeRecords(runID, r.Spikes)...)
		trace.Log(map[string]any{
			"step":   r.Step,
			"start":  r.StartTick,
			"end":    r.EndTick,
			"spikes": r.Spikes,
			"window": r.Window.Neurons(),
			"action": action,
			"reward": r.Outcome.Reward,
			"done":   r.Outcome.Done,
		})
		if req.OnStep != nil {
			req.OnStep(StepEvent{
				Step:      r.Step,
				StartTick: r.StartTick,
				EndTick:   r.EndTick,
				Spikes:    len(r.Spikes),
				Window:    r.Window.Len(),
				Action:    action,
				Reward:    r.Outcome.Reward,
				Done:      r.Outcome.Done,
				Render:    sb.env.Render(),
			})
		}
	}

	coord, err := coordinator.New(sb.net, sb.clock, sb.enc, sb.dec, sb.env, coordinator.Config{
		TicksPerStep: cfg.Run.TicksPerStep,
		Outputs:      cfg.Run.Outputs,
		Logger:       logger,
		Observer:     observer,
	})
	if err != nil {
		return RunSummary{}, err
	}

	started := c.now().UTC()
	result, runErr := coord.Run(ctx, maxSteps)
	if result.Partial != nil {
		spikes = append(spikes, spikeRecords(runID, result.Partial.Spikes)...)
	}
	finished := c.now().UTC()

	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return RunSummary{}, fmt.Errorf("encode run config: %w", err)
	}
	record := model.RunRecord{
		VersionedRecord: storage.Versioned(),
		ID:              runID,
		Environment:     sb.env.Name(),
		Encoder:         sb.enc.Name(),
		Decoder:         sb.dec.Name(),
		Neurons:         sb.net.Len(),
		Config:          configJSON,
		State:           result.State.String(),
		Steps:           result.Steps,
		TotalReward:     result.TotalReward,
		EndTick:         result.EndTick,
		Abort:           abortRef(result.Abort),
		StartedAt:       started,
		FinishedAt:      finished,
	}

	// Persist with a fresh context so a cancelled run is still recorded.
	persistCtx := context.WithoutCancel(ctx)
	if err := c.persist(persistCtx, record, steps, spikes); err != nil {
		return RunSummary{}, err
	}
	dir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{Run: record, Config: cfg, Steps: steps, Spikes: spikes})
	if err != nil {
		return RunSummary{}, fmt.Errorf("write artifacts: %w", err)
	}
	if err := stats.AppendRunIndex(c.artifactsDir, stats.RunIndexEntry{
		RunID:        runID,
		Environment:  record.Environment,
		Encoder:      record.Encoder,
		Decoder:      record.Decoder,
		State:        record.State,
		Steps:        record.Steps,
		TotalReward:  record.TotalReward,
		CreatedAtUTC: started.Format(time.RFC3339Nano),
	}); err != nil {
		return RunSummary{}, fmt.Errorf("update run index: %w", err)
	}

	summary := RunSummary{
		RunID:        runID,
		State:        record.State,
		Steps:        record.Steps,
		TotalReward:  record.TotalReward,
		EndTick:      record.EndTick,
		Spikes:       len(spikes),
		Environment:  record.Environment,
		Encoder:      record.Encoder,
		Decoder:      record.Decoder,
		Abort:        record.Abort,
		ArtifactsDir: dir,
		Elapsed:      finished.Sub(started),
	}
	logger.Info("run finished", "state", summary.State, "steps", summary.Steps, "spikes", summary.Spikes, "total_reward", summary.TotalReward)
	return summary, runErr
}

func (c *Client) persist(ctx context.Context, record model.RunRecord, steps []model.StepRecord, spikes []model.SpikeRecord) error {
	if err := c.store.SaveRun(ctx, record); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	if err := c.store.AppendSteps(ctx, record.ID, steps); err != nil {
		return fmt.Errorf("save steps: %w", err)
	}
	if err := c.store.AppendSpikes(ctx, record.ID, spikes); err != nil {
		return fmt.Errorf("save spikes: %w", err)
	}
	return nil
}

func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]model.RunRecord, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if req.Limit > 0 && len(runs) > req.Limit {
		runs = runs[:req.Limit]
	}
	return runs, nil
}

func (c *Client) Spikes(ctx context.Context, req SpikesRequest) ([]model.SpikeRecord, error) {
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}
	if req.To != 0 && req.To < req.From {
		return nil, fmt.Errorf("invalid tick range [%d,%d)", req.From, req.To)
	}
	return c.store.GetSpikes(ctx, runID, req.From, req.To)
}

func (c *Client) Steps(ctx context.Context, req StepsRequest) ([]model.StepRecord, error) {
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}
	steps, _, err := c.store.GetSteps(ctx, runID)
	return steps, err
}

// Components lists every registered environment with the encoders and
// decoders compatible with it.
func (c *Client) Components() []ComponentInfo {
	envs := scape.List()
	out := make([]ComponentInfo, 0, len(envs))
	for _, env := range envs {
		out = append(out, ComponentInfo{
			Environment: env,
			Encoders:    netio.ListEncodersForEnvironment(env),
			Decoders:    netio.ListDecodersForEnvironment(env),
		})
	}
	return out
}

func (c *Client) resolveRunID(ctx context.Context, runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if runID != "" {
		if _, ok, err := c.store.GetRun(ctx, runID); err != nil {
			return "", err
		} else if !ok {
			return "", fmt.Errorf("run not found: %s", runID)
		}
		return runID, nil
	}
	if !latest {
		return "", errors.New("run id or latest is required")
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", errors.New("no runs available")
	}
	return runs[0].ID, nil
}

type sandbox struct {
	net   *snn.Network
	clock *snn.Clock
	enc   netio.Encoder
	dec   netio.Decoder
	env   scape.Environment
}

func build(cfg *config.Config) (sandbox, error) {
	params, err := cfg.NeuronParams()
	if err != nil {
		return sandbox{}, err
	}
	net, err := snn.New(snn.Config{Neurons: params, Retention: cfg.Network.RetentionTicks})
	if err != nil {
		return sandbox{}, err
	}
	clock, err := snn.NewClock(cfg.Network.TickDurationMs)
	if err != nil {
		return sandbox{}, err
	}
	env, err := scape.Resolve(cfg.Environment.Name, cfg.Environment.Options)
	if err != nil {
		return sandbox{}, fmt.Errorf("%w: %v", config.ErrConfiguration, err)
	}

	base := netio.BuildContext{
		Environment: cfg.Environment.Name,
		Neurons:     net.Len(),
		Width:       cfg.Environment.Width,
		Height:      cfg.Environment.Height,
		Outputs:     cfg.Run.Outputs,
	}
	encoders := make([]netio.Encoder, 0, len(cfg.Encoders))
	for _, ec := range cfg.Encoders {
		bctx := base
		bctx.Params = ec.Params
		enc, err := netio.ResolveEncoder(ec.Name, bctx)
		if err != nil {
			return sandbox{}, fmt.Errorf("%w: %v", config.ErrConfiguration, err)
		}
		encoders = append(encoders, enc)
	}
	var enc netio.Encoder = netio.MultiEncoder{Encoders: encoders}
	if len(encoders) == 1 {
		enc = encoders[0]
	}

	bctx := base
	bctx.Params = cfg.Decoder.Params
	dec, err := netio.ResolveDecoder(cfg.Decoder.Name, bctx)
	if err != nil {
		return sandbox{}, fmt.Errorf("%w: %v", config.ErrConfiguration, err)
	}

	return sandbox{net: net, clock: clock, enc: enc, dec: dec, env: env}, nil
}

func spikeRecords(runID string, events []snn.SpikeEvent) []model.SpikeRecord {
	out := make([]model.SpikeRecord, 0, len(events))
	for _, ev := range events {
		out = append(out, model.SpikeRecord{RunID: runID, Neuron: ev.Neuron, Tick: ev.Tick, Amplitude: ev.Amplitude})
	}
	return out
}

func abortRef(err *coordinator.AbortError) *model.AbortRef {
	if err == nil {
		return nil
	}
	ref := &model.AbortRef{
		Kind:              err.Kind.String(),
		Collaborator:      err.Collaborator,
		LastCompletedStep: err.LastCompletedStep,
	}
	if err.Err != nil {
		ref.Message = err.Err.Error()
	}
	return ref
}
