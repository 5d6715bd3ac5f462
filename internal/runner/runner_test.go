package runner

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/me/modelrun/internal/dataset"
	"github.com/me/modelrun/internal/logging"
	"github.com/me/modelrun/internal/registry"
	"github.com/me/modelrun/internal/store"
	"github.com/me/modelrun/pkg/model"
)

func testStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:", logging.Discard())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func testAccessor() *dataset.Accessor {
	return dataset.New(
		filepath.Join("..", "dataset", "testdata", "yield_data.csv"),
		filepath.Join("..", "dataset", "testdata", "water_risk_data.csv"),
		logging.Discard(),
	)
}

func testRunner(st store.Store) *Runner {
	return New(st, testAccessor(), registry.New(), Config{StepDelay: 0}, logging.Discard())
}

func TestRunLifecycleSucceeds(t *testing.T) {
	st := testStore(t)
	r := testRunner(st)
	ctx := context.Background()

	params := map[string]any{"region": "IA-Central", "year": 2010}
	id, err := st.CreateRun(ctx, "crop_yield_predictor", "alice", params)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	r.Launch(id, "crop_yield_predictor", params)
	r.Wait()

	run, err := st.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if run.Status != model.RunStateSucceeded {
		t.Errorf("status = %s, want succeeded", run.Status)
	}
	if run.FinishedAt == nil {
		t.Error("finished_at not set on terminal run")
	}

	res, err := st.GetResult(ctx, id)
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if res == nil {
		t.Fatal("no result persisted")
	}
	if res.Summary["expected_yield_bu_acre"] != 155.0 {
		t.Errorf("expected_yield_bu_acre = %v, want 155.0", res.Summary["expected_yield_bu_acre"])
	}
	if res.Summary["total_production_bu"] != 47000.0 {
		t.Errorf("total_production_bu = %v, want 47000", res.Summary["total_production_bu"])
	}
	if res.Summary["total_acres"] != float64(300) {
		t.Errorf("total_acres = %v, want 300", res.Summary["total_acres"])
	}
	if len(res.Table) != 1 {
		t.Errorf("table rows = %d, want 1", len(res.Table))
	}
}

func TestUnknownModelStillSucceeds(t *testing.T) {
	st := testStore(t)
	r := testRunner(st)
	ctx := context.Background()

	params := map[string]any{"region": "IA-Central", "year": 2010}
	id, _ := st.CreateRun(ctx, "no_such_model", "alice", params)

	r.Launch(id, "no_such_model", params)
	r.Wait()

	run, _ := st.GetRun(ctx, id)
	if run.Status != model.RunStateSucceeded {
		t.Errorf("status = %s, want succeeded for unknown model", run.Status)
	}

	res, _ := st.GetResult(ctx, id)
	if res == nil {
		t.Fatal("no result persisted")
	}
	if res.Summary["error"] != "unknown model" {
		t.Errorf("summary = %v, want error-shaped payload", res.Summary)
	}
	if len(res.Table) != 0 {
		t.Errorf("table = %v, want empty", res.Table)
	}
}

// recordingStore captures the status sequence the runner writes.
type recordingStore struct {
	store.Store
	mu       sync.Mutex
	statuses []model.RunState
}

func (s *recordingStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunState) error {
	s.mu.Lock()
	s.statuses = append(s.statuses, status)
	s.mu.Unlock()
	return s.Store.UpdateRunStatus(ctx, runID, status)
}

func TestTransitionsStrictlyOrdered(t *testing.T) {
	rec := &recordingStore{Store: testStore(t)}
	r := New(rec, testAccessor(), registry.New(), Config{StepDelay: 0}, logging.Discard())
	ctx := context.Background()

	params := map[string]any{"region": "KS-West", "year": 2015}
	id, _ := rec.CreateRun(ctx, "water_risk", "alice", params)

	r.Launch(id, "water_risk", params)
	r.Wait()

	want := []model.RunState{
		model.RunStateRunning,
		model.RunStateComputing,
		model.RunStatePostprocessing,
		model.RunStateSucceeded,
	}
	if len(rec.statuses) != len(want) {
		t.Fatalf("transitions = %v, want %v", rec.statuses, want)
	}
	prev := model.RunStateQueued
	for i, s := range rec.statuses {
		if s != want[i] {
			t.Errorf("transition %d = %s, want %s", i, s, want[i])
		}
		if !prev.CanTransitionTo(s) {
			t.Errorf("illegal transition %s -> %s", prev, s)
		}
		prev = s
	}
}

// failingStore rejects result writes to exercise the no-recovery path.
type failingStore struct {
	store.Store
}

func (s *failingStore) UpsertResult(ctx context.Context, runID string, summary map[string]any, table []map[string]any) error {
	return errors.New("disk full")
}

func TestStorageFailureLeavesRunStranded(t *testing.T) {
	fs := &failingStore{Store: testStore(t)}
	r := New(fs, testAccessor(), registry.New(), Config{StepDelay: 0}, logging.Discard())
	ctx := context.Background()

	params := map[string]any{"region": "KS-West", "year": 2015}
	id, _ := fs.CreateRun(ctx, "water_risk", "alice", params)

	r.Launch(id, "water_risk", params)
	r.Wait()

	run, _ := fs.GetRun(ctx, id)
	if run.Status != model.RunStatePostprocessing {
		t.Errorf("status = %s, want run stranded at postprocessing", run.Status)
	}
	if run.FinishedAt != nil {
		t.Error("finished_at set for a non-terminal run")
	}
	if res, _ := fs.GetResult(ctx, id); res != nil {
		t.Errorf("result persisted despite failure: %+v", res)
	}
}

func TestWaterRiskResultPayload(t *testing.T) {
	st := testStore(t)
	r := testRunner(st)
	ctx := context.Background()

	params := map[string]any{"region": "KS-West", "year": 2015}
	id, _ := st.CreateRun(ctx, "water_risk", "alice", params)

	r.Launch(id, "water_risk", params)
	r.Wait()

	res, _ := st.GetResult(ctx, id)
	if res == nil {
		t.Fatal("no result persisted")
	}
	if res.Summary["avg_drought_index"] != 0.375 {
		t.Errorf("avg_drought_index = %v, want 0.375", res.Summary["avg_drought_index"])
	}
	if res.Summary["avg_irrigation_cost_usd_per_acre"] != 35.0 {
		t.Errorf("avg_irrigation_cost_usd_per_acre = %v, want 35.0", res.Summary["avg_irrigation_cost_usd_per_acre"])
	}
	if res.Summary["avg_water_risk_score"] != 0.363 {
		t.Errorf("avg_water_risk_score = %v, want 0.363", res.Summary["avg_water_risk_score"])
	}
	if res.Summary["records_used"] != float64(2) {
		t.Errorf("records_used = %v, want 2", res.Summary["records_used"])
	}
}

func TestIntParam(t *testing.T) {
	tests := []struct {
		in   map[string]any
		want int
	}{
		{map[string]any{"year": 2010}, 2010},
		{map[string]any{"year": float64(2015)}, 2015},
		{map[string]any{"year": "2020"}, 2020},
		{map[string]any{"year": "bogus"}, 0},
		{map[string]any{}, 0},
	}
	for _, tt := range tests {
		if got := intParam(tt.in, "year"); got != tt.want {
			t.Errorf("intParam(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
