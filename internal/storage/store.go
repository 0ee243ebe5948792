package storage

import (
	"context"

	"mazeswarm/internal/model"
)

// Store defines the persistence operations for runs and their artifacts.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	DeleteRun(ctx context.Context, id string) error
	SaveTickHistory(ctx context.Context, runID string, ticks []model.TickRecord) error
	GetTickHistory(ctx context.Context, runID string) ([]model.TickRecord, bool, error)
	SaveMap(ctx context.Context, snapshot model.MapRecord) error
	GetMap(ctx context.Context, runID string) (model.MapRecord, bool, error)
	SaveExperiment(ctx context.Context, experiment model.ExperimentRecord) error
	GetExperiment(ctx context.Context, id string) (model.ExperimentRecord, bool, error)
}
