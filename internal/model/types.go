package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunRecord summarises one coordinator run.
type RunRecord struct {
	VersionedRecord
	ID          string    `json:"id"`
	Environment string    `json:"environment"`
	Encoder     string    `json:"encoder"`
	Decoder     string    `json:"decoder"`
	Neurons     int       `json:"neurons"`
	Config      []byte    `json:"config,omitempty"`
	State       string    `json:"state"`
	Steps       int       `json:"steps"`
	TotalReward float64   `json:"total_reward"`
	EndTick     uint64    `json:"end_tick"`
	Abort       *AbortRef `json:"abort,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// AbortRef is the persisted form of a coordinator abort.
type AbortRef struct {
	Kind              string `json:"kind"`
	Collaborator      string `json:"collaborator"`
	LastCompletedStep int    `json:"last_completed_step"`
	Message           string `json:"message"`
}

type StepRecord struct {
	VersionedRecord
	RunID     string  `json:"run_id"`
	Step      int     `json:"step"`
	StartTick uint64  `json:"start_tick"`
	EndTick   uint64  `json:"end_tick"`
	Spikes    int     `json:"spikes"`
	Window    int     `json:"window"`
	Action    string  `json:"action"`
	Reward    float64 `json:"reward"`
	Done      bool    `json:"done"`
}

type SpikeRecord struct {
	RunID     string  `json:"run_id"`
	Neuron    int     `json:"neuron"`
	Tick      uint64  `json:"tick"`
	Amplitude float64 `json:"amplitude"`
}
