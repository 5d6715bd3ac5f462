package server

import (
	"net/http"

	"github.com/me/modelrun/pkg/model"
)

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	models, err := s.store.ListModels(r.Context())
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}
	if models == nil {
		models = []model.ModelInfo{}
	}
	respondOK(w, reqID, models)
}
