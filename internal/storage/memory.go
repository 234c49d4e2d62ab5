package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"neuronet/internal/model"
)

var errNotInitialized = errors.New("store is not initialized")

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	steps       map[string][]model.StepRecord
	spikes      map[string][]model.SpikeRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.steps = make(map[string][]model.StepRecord)
	s.spikes = make(map[string][]model.SpikeRecord)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	if run.ID == "" {
		return errors.New("run id is required")
	}
	run.Config = append([]byte(nil), run.Config...)
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sortRuns(runs)
	return runs, nil
}

func (s *MemoryStore) AppendSteps(_ context.Context, runID string, steps []model.StepRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	for _, step := range steps {
		step.RunID = runID
		s.steps[runID] = append(s.steps[runID], step)
	}
	return nil
}

func (s *MemoryStore) GetSteps(_ context.Context, runID string) ([]model.StepRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	steps, ok := s.steps[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]model.StepRecord(nil), steps...), true, nil
}

func (s *MemoryStore) AppendSpikes(_ context.Context, runID string, spikes []model.SpikeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	for _, spike := range spikes {
		spike.RunID = runID
		s.spikes[runID] = append(s.spikes[runID], spike)
	}
	return nil
}

func (s *MemoryStore) GetSpikes(_ context.Context, runID string, from, to uint64) ([]model.SpikeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.SpikeRecord, 0)
	for _, spike := range s.spikes[runID] {
		if spike.Tick < from || (to != 0 && spike.Tick >= to) {
			continue
		}
		out = append(out, spike)
	}
	return out, nil
}

// sortRuns orders newest first, breaking ties by id so listings are stable.
func sortRuns(runs []model.RunRecord) {
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
}
