// Package config loads neuronet sandbox configuration from YAML files and
// NEURONET_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	netio "neuronet/internal/io"
	"neuronet/internal/lif"
	"neuronet/internal/scape"
	"neuronet/internal/snn"
)

// ErrConfiguration is shared with the engine so every fail-fast setup error
// matches a single sentinel.
var ErrConfiguration = snn.ErrConfiguration

type Config struct {
	Network     NetworkConfig     `json:"network" yaml:"network"`
	Run         RunConfig         `json:"run" yaml:"run"`
	Encoders    []ComponentConfig `json:"encoders" yaml:"encoders"`
	Decoder     ComponentConfig   `json:"decoder" yaml:"decoder"`
	Environment EnvironmentConfig `json:"environment" yaml:"environment"`
	Logging     LoggingConfig     `json:"logging" yaml:"logging"`
	Storage     StorageConfig     `json:"storage" yaml:"storage"`
}

type NetworkConfig struct {
	Neurons        int           `json:"neurons" yaml:"neurons"`
	TickDurationMs float64       `json:"tick_duration_ms" yaml:"tick_duration_ms"`
	RetentionTicks uint64        `json:"retention_ticks" yaml:"retention_ticks"`
	LIF            LIFConfig     `json:"lif" yaml:"lif"`
	Overrides      []LIFOverride `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

// LIFConfig is the default neuron. When TauMs is set the leak rate is
// derived from it and the tick duration.
type LIFConfig struct {
	lif.Params `yaml:",inline"`
	TauMs      float64 `json:"tau_ms,omitempty" yaml:"tau_ms,omitempty"`
}

// LIFOverride replaces selected fields for the listed neurons.
type LIFOverride struct {
	Neurons         []int    `json:"neurons" yaml:"neurons"`
	Threshold       *float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Reset           *float64 `json:"reset,omitempty" yaml:"reset,omitempty"`
	Rest            *float64 `json:"rest,omitempty" yaml:"rest,omitempty"`
	LeakRate        *float64 `json:"leak_rate,omitempty" yaml:"leak_rate,omitempty"`
	RefractoryTicks *int     `json:"refractory_ticks,omitempty" yaml:"refractory_ticks,omitempty"`
	InputGain       *float64 `json:"input_gain,omitempty" yaml:"input_gain,omitempty"`
}

type RunConfig struct {
	TicksPerStep int   `json:"ticks_per_step" yaml:"ticks_per_step"`
	MaxSteps     int   `json:"max_steps" yaml:"max_steps"`
	Outputs      []int `json:"outputs" yaml:"outputs"`
}

type ComponentConfig struct {
	Name   string       `json:"name" yaml:"name"`
	Params netio.Params `json:"params,omitempty" yaml:"params,omitempty"`
}

type EnvironmentConfig struct {
	Name          string `json:"name" yaml:"name"`
	scape.Options `yaml:",inline"`
}

type LoggingConfig struct {
	// Level is "info" (default), "debug" or "trace". debug and trace also
	// write per-step spike traces into the run's artifact directory.
	Level string `json:"level" yaml:"level"`
}

type StorageConfig struct {
	// Backend is "memory" (default) or "sqlite". sqlite needs a binary
	// built with -tags sqlite.
	Backend      string `json:"backend" yaml:"backend"`
	Path         string `json:"path,omitempty" yaml:"path,omitempty"`
	ArtifactsDir string `json:"artifacts_dir,omitempty" yaml:"artifacts_dir,omitempty"`
}

const (
	DefaultScreenWidth  = 16
	DefaultScreenHeight = 9
)

// Default is the screen demo: one input neuron per pixel followed by four
// direction neurons (up, down, left, right).
func Default() *Config {
	inputs := DefaultScreenWidth * DefaultScreenHeight
	params := lif.DefaultParams()
	return &Config{
		Network: NetworkConfig{
			Neurons:        inputs + 4,
			TickDurationMs: 1.0,
			RetentionTicks: snn.DefaultRetention,
			LIF:            LIFConfig{Params: params},
		},
		Run: RunConfig{
			TicksPerStep: 10,
			MaxSteps:     200,
			Outputs:      []int{inputs, inputs + 1, inputs + 2, inputs + 3},
		},
		Encoders: []ComponentConfig{
			{Name: netio.PositionEncoderName, Params: netio.Params{"base": 0}},
			{Name: netio.HalfPlaneDirectionEncoderName},
		},
		Decoder: ComponentConfig{Name: netio.FirstToSpikeMoveDecoderName},
		Environment: EnvironmentConfig{
			Name: scape.SimpleScreenName,
			Options: scape.Options{
				Width:  DefaultScreenWidth,
				Height: DefaultScreenHeight,
				Goal:   "center-seeking",
			},
		},
		Logging: LoggingConfig{Level: "info"},
		Storage: StorageConfig{Backend: "memory"},
	}
}

// Load applies defaults, then the YAML file at path when path is non-empty,
// then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		cfg = fileCfg
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults. ${VAR} references are expanded
// first and unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(strings.NewReader(os.ExpandEnv(string(data))))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// NeuronParams expands the default neuron and overrides into one parameter
// set per neuron.
func (c *Config) NeuronParams() ([]lif.Params, error) {
	if c.Network.Neurons <= 0 {
		return nil, fmt.Errorf("%w: network.neurons must be > 0, got %d", ErrConfiguration, c.Network.Neurons)
	}
	base := c.Network.LIF.Params
	if c.Network.LIF.TauMs > 0 {
		leak, err := lif.LeakFromTau(c.Network.LIF.TauMs, c.Network.TickDurationMs)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		base.LeakRate = leak
	}
	params := snn.Uniform(c.Network.Neurons, base)
	for i, o := range c.Network.Overrides {
		if len(o.Neurons) == 0 {
			return nil, fmt.Errorf("%w: network.overrides[%d] lists no neurons", ErrConfiguration, i)
		}
		for _, id := range o.Neurons {
			if id < 0 || id >= len(params) {
				return nil, fmt.Errorf("%w: network.overrides[%d] neuron %d not in [0,%d)", ErrConfiguration, i, id, len(params))
			}
			o.apply(&params[id])
		}
	}
	return params, nil
}

func (o LIFOverride) apply(p *lif.Params) {
	if o.Threshold != nil {
		p.Threshold = *o.Threshold
	}
	if o.Reset != nil {
		p.Reset = *o.Reset
	}
	if o.Rest != nil {
		p.Rest = *o.Rest
	}
	if o.LeakRate != nil {
		p.LeakRate = *o.LeakRate
	}
	if o.RefractoryTicks != nil {
		p.RefractoryTicks = *o.RefractoryTicks
	}
	if o.InputGain != nil {
		p.InputGain = *o.InputGain
	}
}

// Validate checks everything that can be checked without building the
// collaborators. Failures wrap ErrConfiguration.
func (c *Config) Validate() error {
	if d := c.Network.TickDurationMs; !(d > 0) || math.IsInf(d, 0) {
		return fmt.Errorf("%w: network.tick_duration_ms must be > 0, got %g", ErrConfiguration, d)
	}
	if c.Network.RetentionTicks == 0 {
		return fmt.Errorf("%w: network.retention_ticks must be > 0", ErrConfiguration)
	}
	params, err := c.NeuronParams()
	if err != nil {
		return err
	}
	for i, p := range params {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w: neuron %d: %v", ErrConfiguration, i, err)
		}
	}
	if c.Run.TicksPerStep < 1 {
		return fmt.Errorf("%w: run.ticks_per_step must be >= 1, got %d", ErrConfiguration, c.Run.TicksPerStep)
	}
	if c.Run.MaxSteps < 0 {
		return fmt.Errorf("%w: run.max_steps must be >= 0, got %d", ErrConfiguration, c.Run.MaxSteps)
	}
	if len(c.Run.Outputs) == 0 {
		return fmt.Errorf("%w: run.outputs must list at least one neuron", ErrConfiguration)
	}
	for _, id := range c.Run.Outputs {
		if id < 0 || id >= c.Network.Neurons {
			return fmt.Errorf("%w: output neuron %d not in [0,%d)", ErrConfiguration, id, c.Network.Neurons)
		}
	}
	if len(c.Encoders) == 0 {
		return fmt.Errorf("%w: at least one encoder is required", ErrConfiguration)
	}
	for i, e := range c.Encoders {
		if strings.TrimSpace(e.Name) == "" {
			return fmt.Errorf("%w: encoders[%d].name is required", ErrConfiguration, i)
		}
	}
	if strings.TrimSpace(c.Decoder.Name) == "" {
		return fmt.Errorf("%w: decoder.name is required", ErrConfiguration)
	}
	if strings.TrimSpace(c.Environment.Name) == "" {
		return fmt.Errorf("%w: environment.name is required", ErrConfiguration)
	}
	validLevels := map[string]bool{"info": true, "debug": true, "trace": true, "warn": true}
	if c.Logging.Level != "" && !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("%w: invalid log level: %s (valid: info, debug, trace, warn)", ErrConfiguration, c.Logging.Level)
	}
	switch c.Storage.Backend {
	case "", "memory", "sqlite":
	default:
		return fmt.Errorf("%w: unsupported storage backend: %s", ErrConfiguration, c.Storage.Backend)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("NEURONET_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("NEURONET_TICKS_PER_STEP"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: NEURONET_TICKS_PER_STEP: %v", ErrConfiguration, err)
		}
		cfg.Run.TicksPerStep = n
	}
	if v := os.Getenv("NEURONET_MAX_STEPS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: NEURONET_MAX_STEPS: %v", ErrConfiguration, err)
		}
		cfg.Run.MaxSteps = n
	}
	if v := os.Getenv("NEURONET_STORE"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("NEURONET_STORE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("NEURONET_ARTIFACTS_DIR"); v != "" {
		cfg.Storage.ArtifactsDir = v
	}
	return nil
}
