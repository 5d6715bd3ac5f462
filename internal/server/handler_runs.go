package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/me/modelrun/pkg/model"
)

func (s *Server) handleSubmitRun(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	owner := OwnerFromContext(r.Context())

	var req struct {
		ModelID string `json:"model_id"`
		Region  string `json:"region"`
		Year    int    `json:"year"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return
	}

	var fields []model.FieldError
	if req.ModelID == "" {
		fields = append(fields, model.FieldError{Field: "model_id", Message: "model_id is required"})
	}
	if req.Region == "" {
		fields = append(fields, model.FieldError{Field: "region", Message: "region is required"})
	}
	if req.Year == 0 {
		fields = append(fields, model.FieldError{Field: "year", Message: "year is required"})
	}
	if len(fields) > 0 {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("missing required field", fields...))
		return
	}

	// The model id is deliberately not checked against the catalog here:
	// unknown models are accepted and surface as an error-shaped result
	// once the run completes.
	params := map[string]any{"region": req.Region, "year": req.Year}

	runID, err := s.store.CreateRun(r.Context(), req.ModelID, owner, params)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}

	// The driving task runs independently of this request; the caller gets
	// the run id back before any transition past queued.
	s.runner.Launch(runID, req.ModelID, params)

	s.logger.Info("run submitted", "run_id", runID, "model_id", req.ModelID, "owner_id", owner)
	respondCreated(w, reqID, model.RunCreated{RunID: runID})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	owner := OwnerFromContext(r.Context())

	runs, err := s.store.ListRunsForOwner(r.Context(), owner)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}

	items := make([]model.RunListItem, 0, len(runs))
	for _, run := range runs {
		items = append(items, model.RunListItem{
			ID:         run.ID,
			ModelID:    run.ModelID,
			Status:     run.Status,
			CreatedAt:  run.CreatedAt,
			FinishedAt: run.FinishedAt,
		})
	}
	respondOK(w, reqID, items)
}

// fetchOwnedRun loads a run and enforces the 404-then-403 two-step: absent
// runs are NOT_FOUND, runs owned by someone else are FORBIDDEN. It writes
// the error response itself and returns nil when the caller should stop.
func (s *Server) fetchOwnedRun(w http.ResponseWriter, r *http.Request) *model.Run {
	reqID := RequestIDFromContext(r.Context())
	owner := OwnerFromContext(r.Context())
	id := chi.URLParam(r, "id")

	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return nil
	}
	if run == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("run", id))
		return nil
	}
	if run.OwnerID != owner {
		respondError(w, reqID, http.StatusForbidden, model.NewForbiddenError("run", id))
		return nil
	}
	return run
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	run := s.fetchOwnedRun(w, r)
	if run == nil {
		return
	}

	respondOK(w, reqID, model.RunStatus{
		RunID:      run.ID,
		ModelID:    run.ModelID,
		Status:     run.Status,
		StartedAt:  run.CreatedAt,
		FinishedAt: run.FinishedAt,
	})
}

func (s *Server) handleRunResults(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	run := s.fetchOwnedRun(w, r)
	if run == nil {
		return
	}

	res, err := s.store.GetResult(r.Context(), run.ID)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}
	if res == nil {
		// No result persisted yet; the empty shape lets the UI poll without
		// special-casing in-flight runs.
		respondOK(w, reqID, model.RunResults{
			Summary: map[string]any{},
			Table:   []map[string]any{},
		})
		return
	}

	respondOK(w, reqID, model.RunResults{Summary: res.Summary, Table: res.Table})
}
