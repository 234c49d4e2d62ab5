package storage

import (
	"context"

	"neuronet/internal/model"
)

type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	// ListRuns returns runs newest first.
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	AppendSteps(ctx context.Context, runID string, steps []model.StepRecord) error
	GetSteps(ctx context.Context, runID string) ([]model.StepRecord, bool, error)
	AppendSpikes(ctx context.Context, runID string, spikes []model.SpikeRecord) error
	// GetSpikes returns spikes with from <= tick < to; to == 0 means no upper bound.
	GetSpikes(ctx context.Context, runID string, from, to uint64) ([]model.SpikeRecord, error)
}
