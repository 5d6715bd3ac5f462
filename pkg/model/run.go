package model

import "time"

// Run is one user-initiated execution of a registered model against concrete
// parameters. Status is set to queued at creation and mutated only by the
// runner afterwards.
type Run struct {
	ID         string         `json:"id"`
	ModelID    string         `json:"model_id"`
	OwnerID    string         `json:"owner_id"`
	Status     RunState       `json:"status"`
	Params     map[string]any `json:"params"`
	CreatedAt  time.Time      `json:"created_at"`
	FinishedAt *time.Time     `json:"finished_at"`
}

// RunResult is the persisted output of a completed run. Exactly one result
// exists per run; writing again replaces the previous payload.
type RunResult struct {
	RunID   string           `json:"run_id"`
	Summary map[string]any   `json:"summary"`
	Table   []map[string]any `json:"table"`
}

// ModelInfo is a static catalog entry for a registered model.
// Seeded once at startup; immutable afterwards.
type ModelInfo struct {
	ModelID     string `json:"model_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
