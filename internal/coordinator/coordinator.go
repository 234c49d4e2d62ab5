package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	netio "neuronet/internal/io"
	"neuronet/internal/scape"
	"neuronet/internal/snn"
)

type State int

const (
	StateIdle State = iota
	StateRunning
	StateTerminated
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// StepReport describes one completed outer step. Ticks covers
// [StartTick, EndTick).
type StepReport struct {
	Step      int
	StartTick uint64
	EndTick   uint64
	Spikes    []snn.SpikeEvent
	Window    snn.SpikeWindow
	Action    netio.Action
	Outcome   scape.Outcome
}

// Observer receives every completed step. It runs synchronously inside Step.
type Observer func(StepReport)

type Config struct {
	TicksPerStep int
	Outputs      []int
	Logger       *slog.Logger
	Observer     Observer
}

type Result struct {
	State       State
	Steps       int
	TotalReward float64
	EndTick     uint64
	Abort       *AbortError
	// Partial holds the aborted step's report, with the spikes of every
	// tick simulated before the violation.
	Partial *StepReport
}

// Coordinator owns one network, clock and collaborator set and drives the
// observe, encode, simulate, decode, apply loop.
type Coordinator struct {
	net   *snn.Network
	clock *snn.Clock
	enc   netio.Encoder
	dec   netio.Decoder
	env   scape.Environment

	ticksPerStep int
	outputs      map[int]struct{}
	outputList   []int
	logger       *slog.Logger
	observer     Observer

	state       State
	steps       int
	totalReward float64
	abort       *AbortError
	partial     *StepReport
}

func New(
	net *snn.Network,
	clock *snn.Clock,
	enc netio.Encoder,
	dec netio.Decoder,
	env scape.Environment,
	cfg Config,
) (*Coordinator, error) {
	switch {
	case net == nil:
		return nil, fmt.Errorf("%w: network is required", ErrConfiguration)
	case clock == nil:
		return nil, fmt.Errorf("%w: clock is required", ErrConfiguration)
	case enc == nil:
		return nil, fmt.Errorf("%w: encoder is required", ErrConfiguration)
	case dec == nil:
		return nil, fmt.Errorf("%w: decoder is required", ErrConfiguration)
	case env == nil:
		return nil, fmt.Errorf("%w: environment is required", ErrConfiguration)
	}
	if cfg.TicksPerStep < 1 {
		return nil, fmt.Errorf("%w: ticks per step must be >= 1, got %d", ErrConfiguration, cfg.TicksPerStep)
	}
	if len(cfg.Outputs) == 0 {
		return nil, fmt.Errorf("%w: at least one output neuron is required", ErrConfiguration)
	}
	outputs := make(map[int]struct{}, len(cfg.Outputs))
	for _, id := range cfg.Outputs {
		if id < 0 || id >= net.Len() {
			return nil, fmt.Errorf("%w: output neuron %d not in [0,%d)", ErrConfiguration, id, net.Len())
		}
		if _, dup := outputs[id]; dup {
			return nil, fmt.Errorf("%w: duplicate output neuron %d", ErrConfiguration, id)
		}
		outputs[id] = struct{}{}
	}
	outputList := append([]int(nil), cfg.Outputs...)
	sort.Ints(outputList)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Coordinator{
		net:          net,
		clock:        clock,
		enc:          enc,
		dec:          dec,
		env:          env,
		ticksPerStep: cfg.TicksPerStep,
		outputs:      outputs,
		outputList:   outputList,
		logger:       logger.With("encoder", enc.Name(), "decoder", dec.Name(), "environment", env.Name()),
		observer:     cfg.Observer,
	}, nil
}

func (c *Coordinator) State() State { return c.state }

// Steps is the number of completed outer steps.
func (c *Coordinator) Steps() int { return c.steps }

func (c *Coordinator) TotalReward() float64 { return c.totalReward }

func (c *Coordinator) Abort() *AbortError { return c.abort }

func (c *Coordinator) Outputs() []int { return append([]int(nil), c.outputList...) }

func (c *Coordinator) TicksPerStep() int { return c.ticksPerStep }

// Start moves Idle to Running, rewinds the clock and clears the spike log
// recorded against the old timeline. Neuron state is left as configured;
// re-seeding is up to the caller.
func (c *Coordinator) Start() error {
	if c.state != StateIdle {
		return fmt.Errorf("%w: start from %s", ErrInvalidState, c.state)
	}
	c.clock.Reset()
	c.net.ClearLog()
	c.state = StateRunning
	c.logger.Info("run started", "neurons", c.net.Len(), "ticks_per_step", c.ticksPerStep, "outputs", len(c.outputList))
	return nil
}

// Step runs one outer step. Contract violations move the coordinator to
// Aborted and return an *AbortError; ticks simulated before the violation
// are kept.
func (c *Coordinator) Step(ctx context.Context) (StepReport, error) {
	if c.state != StateRunning {
		return StepReport{}, fmt.Errorf("%w: step while %s", ErrInvalidState, c.state)
	}
	if err := ctx.Err(); err != nil {
		return StepReport{}, err
	}

	report := StepReport{Step: c.steps, StartTick: c.clock.Tick()}

	obs, err := c.env.Observe(ctx)
	if err != nil {
		return c.failStep(report, classify(err, KindEnvironmentContractViolation), CollaboratorEnvironment, err)
	}

	maps, err := c.enc.Encode(obs, c.ticksPerStep)
	if err != nil {
		return c.failStep(report, classify(err, KindEncoderContractViolation), CollaboratorEncoder, err)
	}
	if len(maps) != c.ticksPerStep {
		err := fmt.Errorf("%w: got=%d want=%d", ErrEncoderLengthMismatch, len(maps), c.ticksPerStep)
		return c.failStep(report, KindEncoderLengthMismatch, CollaboratorEncoder, err)
	}

	for _, m := range maps {
		if err := c.net.Inject(m); err != nil {
			return c.failStep(report, classify(err, KindEncoderContractViolation), CollaboratorEncoder, err)
		}
		report.Spikes = append(report.Spikes, c.net.Step(c.clock)...)
	}
	report.EndTick = c.clock.Tick()
	report.Window = snn.NewSpikeWindow(report.StartTick, report.EndTick, report.Spikes).Restrict(c.outputs)

	action, err := c.dec.Decode(report.Window)
	if err != nil {
		return c.failStep(report, classify(err, KindDecoderContractViolation), CollaboratorDecoder, err)
	}
	report.Action = action

	outcome, err := c.env.Apply(ctx, action)
	if err == nil {
		err = outcome.Validate()
	}
	if err != nil {
		return c.failStep(report, classify(err, KindEnvironmentContractViolation), CollaboratorEnvironment, err)
	}
	report.Outcome = outcome

	c.steps++
	c.totalReward += outcome.Reward
	c.logger.Debug("step completed",
		"step", report.Step,
		"ticks", fmt.Sprintf("[%d,%d)", report.StartTick, report.EndTick),
		"spikes", len(report.Spikes),
		"window", report.Window.Len(),
		"action", fmt.Sprint(action),
		"reward", outcome.Reward,
	)
	if c.observer != nil {
		c.observer(report)
	}
	if outcome.Done {
		c.state = StateTerminated
		c.logger.Info("run terminated", "steps", c.steps, "total_reward", c.totalReward)
	}
	return report, nil
}

// Run starts the coordinator if needed and steps until the environment
// reports done, maxSteps steps ran (maxSteps <= 0 means no limit), a
// collaborator violates its contract, or ctx is cancelled. Cancellation is
// only observed between outer steps and leaves the coordinator Running.
func (c *Coordinator) Run(ctx context.Context, maxSteps int) (Result, error) {
	if c.state == StateIdle {
		if err := c.Start(); err != nil {
			return c.result(), err
		}
	}
	for ran := 0; c.state == StateRunning && (maxSteps <= 0 || ran < maxSteps); ran++ {
		if err := ctx.Err(); err != nil {
			c.logger.Info("run cancelled", "steps", c.steps)
			return c.result(), err
		}
		if _, err := c.Step(ctx); err != nil {
			return c.result(), err
		}
	}
	return c.result(), nil
}

func (c *Coordinator) result() Result {
	return Result{
		State:       c.state,
		Steps:       c.steps,
		TotalReward: c.totalReward,
		EndTick:     c.clock.Tick(),
		Abort:       c.abort,
		Partial:     c.partial,
	}
}

func (c *Coordinator) failStep(report StepReport, kind Kind, collaborator string, err error) (StepReport, error) {
	report.EndTick = c.clock.Tick()
	report.Spikes = append([]snn.SpikeEvent(nil), report.Spikes...)
	c.partial = &report
	return report, c.fail(kind, collaborator, err)
}

func (c *Coordinator) fail(kind Kind, collaborator string, err error) error {
	c.state = StateAborted
	c.abort = &AbortError{
		Kind:              kind,
		Collaborator:      collaborator,
		Step:              c.steps,
		LastCompletedStep: c.steps - 1,
		Err:               err,
	}
	c.logger.Warn("run aborted",
		"kind", kind.String(),
		"collaborator", collaborator,
		"last_completed_step", c.steps-1,
		"tick", c.clock.Tick(),
		"err", err,
	)
	return c.abort
}
