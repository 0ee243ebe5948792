package storage

import (
	"context"
	"errors"
	"slices"
	"sync"

	"mazeswarm/internal/model"
)

var errNotInitialized = errors.New("store is not initialized")

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	ticks       map[string][]model.TickRecord
	maps        map[string]model.MapRecord
	experiments map[string]model.ExperimentRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.ticks = make(map[string][]model.TickRecord)
	s.maps = make(map[string]model.MapRecord)
	s.experiments = make(map[string]model.ExperimentRecord)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	run.Maze = slices.Clone(run.Maze)
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return model.RunRecord{}, false, nil
	}
	run.Maze = slices.Clone(run.Maze)
	return run, true, nil
}

// ListRuns returns every stored run, oldest first.
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

func (s *MemoryStore) DeleteRun(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.runs, id)
	delete(s.ticks, id)
	delete(s.maps, id)
	return nil
}

func (s *MemoryStore) SaveTickHistory(_ context.Context, runID string, ticks []model.TickRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.ticks[runID] = slices.Clone(ticks)
	return nil
}

func (s *MemoryStore) GetTickHistory(_ context.Context, runID string) ([]model.TickRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ticks, ok := s.ticks[runID]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(ticks), true, nil
}

func (s *MemoryStore) SaveMap(_ context.Context, snapshot model.MapRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	snapshot.Cells = slices.Clone(snapshot.Cells)
	snapshot.Agents = slices.Clone(snapshot.Agents)
	s.maps[snapshot.RunID] = snapshot
	return nil
}

func (s *MemoryStore) GetMap(_ context.Context, runID string) (model.MapRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.maps[runID]
	if !ok {
		return model.MapRecord{}, false, nil
	}
	snapshot.Cells = slices.Clone(snapshot.Cells)
	snapshot.Agents = slices.Clone(snapshot.Agents)
	return snapshot, true, nil
}

func (s *MemoryStore) SaveExperiment(_ context.Context, experiment model.ExperimentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	experiment.RunIDs = slices.Clone(experiment.RunIDs)
	s.experiments[experiment.ID] = experiment
	return nil
}

func (s *MemoryStore) GetExperiment(_ context.Context, id string) (model.ExperimentRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	experiment, ok := s.experiments[id]
	if !ok {
		return model.ExperimentRecord{}, false, nil
	}
	experiment.RunIDs = slices.Clone(experiment.RunIDs)
	return experiment, true, nil
}

func sortRuns(runs []model.RunRecord) {
	slices.SortFunc(runs, func(a, b model.RunRecord) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
}
