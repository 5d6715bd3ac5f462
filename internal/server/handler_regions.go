package server

import (
	"net/http"

	"github.com/me/modelrun/pkg/model"
)

type regionsResponse struct {
	Regions []string `json:"regions"`
}

// handleListRegions returns the distinct regions of the yield dataset so
// clients can offer a dropdown instead of free-text region entry.
func (s *Server) handleListRegions(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	regions, err := s.datasets.Regions()
	if err != nil {
		s.logger.Error("region listing failed", "error", err)
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}
	respondOK(w, reqID, regionsResponse{Regions: regions})
}
