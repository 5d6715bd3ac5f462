package store

import (
	"context"
	"testing"

	"github.com/me/modelrun/internal/logging"
	"github.com/me/modelrun/pkg/model"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(":memory:", logging.Discard())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestMigrate_Idempotent(t *testing.T) {
	st := testStore(t)
	// Migrate a second time — should not error.
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

// --- Run tests ---

func TestCreateAndGetRun(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	params := map[string]any{"region": "IA-Central", "year": 2010}
	id, err := st.CreateRun(ctx, "crop_yield_predictor", "alice", params)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == "" {
		t.Fatal("empty run id")
	}

	got, err := st.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("got nil run")
	}
	if got.Status != model.RunStateQueued {
		t.Errorf("status = %s, want queued", got.Status)
	}
	if got.FinishedAt != nil {
		t.Errorf("finished_at = %v, want nil for a queued run", got.FinishedAt)
	}
	if got.ModelID != "crop_yield_predictor" || got.OwnerID != "alice" {
		t.Errorf("run = %+v", got)
	}
	if got.Params["region"] != "IA-Central" {
		t.Errorf("params = %v", got.Params)
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}
}

func TestGetRun_Absent(t *testing.T) {
	st := testStore(t)
	got, err := st.GetRun(context.Background(), "run_nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestGetRunForOwner_CollapsesOwnership(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	id, err := st.CreateRun(ctx, "water_risk", "alice", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := st.GetRunForOwner(ctx, id, "alice")
	if err != nil || got == nil {
		t.Fatalf("owner lookup failed: run=%v err=%v", got, err)
	}

	// Another owner's lookup is indistinguishable from a missing run.
	got, err = st.GetRunForOwner(ctx, id, "bob")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("bob can see alice's run: %+v", got)
	}
}

func TestListRunsForOwner_NewestFirst(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	first, _ := st.CreateRun(ctx, "water_risk", "alice", nil)
	second, _ := st.CreateRun(ctx, "crop_yield_predictor", "alice", nil)
	if _, err := st.CreateRun(ctx, "water_risk", "bob", nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	runs, err := st.ListRunsForOwner(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len = %d, want 2", len(runs))
	}
	if runs[0].ID != second || runs[1].ID != first {
		t.Errorf("order = [%s %s], want newest first", runs[0].ID, runs[1].ID)
	}
}

func TestUpdateRunStatus(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	id, _ := st.CreateRun(ctx, "water_risk", "alice", nil)

	if err := st.UpdateRunStatus(ctx, id, model.RunStateRunning); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := st.GetRun(ctx, id)
	if got.Status != model.RunStateRunning {
		t.Errorf("status = %s, want running", got.Status)
	}
	if got.FinishedAt != nil {
		t.Error("finished_at set for a non-terminal status")
	}

	if err := st.UpdateRunStatus(ctx, id, model.RunStateSucceeded); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = st.GetRun(ctx, id)
	if got.Status != model.RunStateSucceeded {
		t.Errorf("status = %s, want succeeded", got.Status)
	}
	if got.FinishedAt == nil {
		t.Error("finished_at not stamped on terminal status")
	}
}

func TestUpdateRunStatus_UnknownIDIsNoop(t *testing.T) {
	st := testStore(t)
	if err := st.UpdateRunStatus(context.Background(), "run_ghost", model.RunStateRunning); err != nil {
		t.Errorf("unknown id should be a silent no-op, got %v", err)
	}
}

// --- Result tests ---

func TestUpsertResult_ReplacesNotDuplicates(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	id, _ := st.CreateRun(ctx, "water_risk", "alice", nil)

	if err := st.UpsertResult(ctx, id, map[string]any{"v": float64(1)}, []map[string]any{{"row": float64(1)}}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := st.UpsertResult(ctx, id, map[string]any{"v": float64(2)}, nil); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	res, err := st.GetResult(ctx, id)
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if res == nil {
		t.Fatal("nil result")
	}
	if res.Summary["v"] != float64(2) {
		t.Errorf("summary = %v, want latest payload", res.Summary)
	}
	if len(res.Table) != 0 {
		t.Errorf("table = %v, want empty after replacement", res.Table)
	}
}

func TestGetResult_Absent(t *testing.T) {
	st := testStore(t)
	res, err := st.GetResult(context.Background(), "run_nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if res != nil {
		t.Errorf("got %+v, want nil", res)
	}
}

// --- Model catalog tests ---

func TestSeedAndListModels(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	catalog := []model.ModelInfo{
		{ModelID: "crop_yield_predictor", Name: "Crop Yield Predictor", Description: "USDA sample"},
		{ModelID: "water_risk", Name: "Water Risk Model", Description: "synthetic"},
	}
	if err := st.SeedModels(ctx, catalog); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Seeding again against a populated catalog changes nothing.
	if err := st.SeedModels(ctx, []model.ModelInfo{{ModelID: "other"}}); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	models, err := st.ListModels(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("len = %d, want 2", len(models))
	}
	if models[0].ModelID != "crop_yield_predictor" || models[1].ModelID != "water_risk" {
		t.Errorf("order = [%s %s], want seed order", models[0].ModelID, models[1].ModelID)
	}
}
