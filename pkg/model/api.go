package model

import "time"

// Response is the standard API response envelope.
type Response struct {
	Status    string    `json:"status"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Error     *APIError `json:"error"`
}

// RunCreated is the payload returned when a run is accepted.
type RunCreated struct {
	RunID string `json:"run_id"`
}

// RunStatus is the payload of the run status endpoint.
type RunStatus struct {
	RunID      string     `json:"run_id"`
	ModelID    string     `json:"model_id"`
	Status     RunState   `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// RunListItem is one entry of the run listing endpoint.
type RunListItem struct {
	ID         string     `json:"id"`
	ModelID    string     `json:"model_id"`
	Status     RunState   `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// RunResults is the payload of the run results endpoint. Summary and Table
// are never nil: a run without a persisted result reports the empty shape.
type RunResults struct {
	Summary map[string]any   `json:"summary"`
	Table   []map[string]any `json:"table"`
}
