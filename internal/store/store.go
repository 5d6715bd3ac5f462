package store

import (
	"context"

	"github.com/me/modelrun/pkg/model"
)

// Store defines the persistence layer for modelrun entities.
//
// Get* methods return (nil, nil) when the requested row is absent.
// GetRunForOwner intentionally collapses "run does not exist" and "run
// belongs to another owner" into the same absent result so the query path
// never leaks the existence of other users' runs.
type Store interface {
	// CreateRun inserts a new run with status queued and returns its
	// newly assigned id.
	CreateRun(ctx context.Context, modelID, ownerID string, params map[string]any) (string, error)

	GetRun(ctx context.Context, runID string) (*model.Run, error)
	GetRunForOwner(ctx context.Context, runID, ownerID string) (*model.Run, error)

	// ListRunsForOwner returns the owner's runs, newest first.
	ListRunsForOwner(ctx context.Context, ownerID string) ([]*model.Run, error)

	// UpdateRunStatus records a status transition. Unknown run ids are a
	// silent no-op. Terminal statuses also stamp the completion timestamp.
	UpdateRunStatus(ctx context.Context, runID string, status model.RunState) error

	// UpsertResult inserts the result for a run, or atomically replaces the
	// existing one. At most one result row exists per run.
	UpsertResult(ctx context.Context, runID string, summary map[string]any, table []map[string]any) error

	GetResult(ctx context.Context, runID string) (*model.RunResult, error)

	// SeedModels populates the model catalog if it is empty. Calling it
	// against a non-empty catalog changes nothing.
	SeedModels(ctx context.Context, models []model.ModelInfo) error

	// ListModels returns the catalog in seed order.
	ListModels(ctx context.Context) ([]model.ModelInfo, error)

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
