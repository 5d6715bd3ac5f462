// Package runner drives submitted runs through their lifecycle stages.
//
// Each run gets exactly one driving task, launched at submission time as its
// own goroutine. The task walks the run forward through
// queued -> running -> computing -> postprocessing -> succeeded, writing each
// transition durably before the next step begins and pausing for the
// configured stage delay between transitions. A failed persistence write
// aborts the task and leaves the run at its last recorded status; polling
// callers simply keep seeing that status.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/me/modelrun/internal/dataset"
	"github.com/me/modelrun/internal/registry"
	"github.com/me/modelrun/internal/store"
	"github.com/me/modelrun/pkg/model"
)

// Config holds runner configuration.
type Config struct {
	// StepDelay is the pause inserted after each status transition.
	StepDelay time.Duration

	// MaxConcurrent bounds simultaneously executing run tasks.
	// Zero means unlimited.
	MaxConcurrent int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{StepDelay: 3 * time.Second}
}

// Runner executes run tasks in the background.
type Runner struct {
	store    store.Store
	datasets *dataset.Accessor
	registry *registry.Registry
	config   Config
	logger   *slog.Logger
	sem      *Semaphore
	wg       sync.WaitGroup
}

// New creates a Runner.
func New(st store.Store, ds *dataset.Accessor, reg *registry.Registry, cfg Config, logger *slog.Logger) *Runner {
	return &Runner{
		store:    st,
		datasets: ds,
		registry: reg,
		config:   cfg,
		logger:   logger.With("component", "runner"),
		sem:      NewSemaphore(cfg.MaxConcurrent),
	}
}

// Launch schedules the driving task for a freshly created run and returns
// immediately. The caller never waits on the task; once scheduled, the task
// runs to completion or to an unhandled failure.
func (r *Runner) Launch(runID, modelID string, params map[string]any) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx := context.Background()

		if !r.sem.Acquire(ctx) {
			return
		}
		defer r.sem.Release()

		if err := r.execute(ctx, runID, modelID, params); err != nil {
			// No recovery path: the run stays at its last durable status.
			r.logger.Error("run task aborted", "run_id", runID, "error", err)
		}
	}()
}

// Wait blocks until all launched tasks have finished. Used on shutdown and
// in tests.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// execute walks one run through its lifecycle.
func (r *Runner) execute(ctx context.Context, runID, modelID string, params map[string]any) error {
	task := &runTask{runner: r, runID: runID, state: model.RunStateQueued}

	if err := task.advance(ctx, model.RunStateRunning); err != nil {
		return err
	}
	if err := r.pause(ctx); err != nil {
		return err
	}

	if err := task.advance(ctx, model.RunStateComputing); err != nil {
		return err
	}
	if err := r.pause(ctx); err != nil {
		return err
	}

	summary, table, err := r.compute(modelID, params)
	if err != nil {
		return fmt.Errorf("compute: %w", err)
	}

	if err := task.advance(ctx, model.RunStatePostprocessing); err != nil {
		return err
	}
	if err := r.pause(ctx); err != nil {
		return err
	}

	if err := r.store.UpsertResult(ctx, runID, summary, table); err != nil {
		return fmt.Errorf("persist result: %w", err)
	}
	if err := task.advance(ctx, model.RunStateSucceeded); err != nil {
		return err
	}

	r.logger.Info("run completed", "run_id", runID, "model_id", modelID)
	return nil
}

// compute resolves the model's routine and builds the result payload.
// An unknown model id is a data-level outcome, not a failure: the run still
// completes, carrying an error-shaped summary and an empty table.
func (r *Runner) compute(modelID string, params map[string]any) (map[string]any, []map[string]any, error) {
	m, ok := r.registry.Get(modelID)
	if !ok {
		r.logger.Warn("unknown model", "model_id", modelID)
		return map[string]any{"error": "unknown model"}, []map[string]any{}, nil
	}

	region, _ := params["region"].(string)
	year := intParam(params, "year")
	return m.Compute(r.datasets, region, year)
}

// runTask tracks the current state of one driving task so every transition
// it records is a valid forward step.
type runTask struct {
	runner *Runner
	runID  string
	state  model.RunState
}

func (t *runTask) advance(ctx context.Context, next model.RunState) error {
	if !t.state.CanTransitionTo(next) {
		return &model.InvalidTransitionError{RunID: t.runID, From: t.state, To: next}
	}
	if err := t.runner.store.UpdateRunStatus(ctx, t.runID, next); err != nil {
		return fmt.Errorf("update status to %s: %w", next, err)
	}
	t.state = next
	t.runner.logger.Debug("run transition", "run_id", t.runID, "status", next)
	return nil
}

// pause sleeps for the configured stage delay.
func (r *Runner) pause(ctx context.Context) error {
	if r.config.StepDelay <= 0 {
		return nil
	}
	select {
	case <-time.After(r.config.StepDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// intParam reads an integer parameter, tolerating the numeric types a JSON
// round-trip can produce. Missing or unreadable values return 0.
func intParam(params map[string]any, key string) int {
	switch v := params[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}
