package server

import "net/http"

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, discoveryResponse{
		Name:        "modelrun API",
		Version:     "v1",
		Description: "Dashboard backend for running and tracking analytical models",
		Endpoints: []endpointInfo{
			{"/api/v1/models", []string{"GET"}, "List the registered model catalog"},
			{"/api/v1/regions", []string{"GET"}, "List distinct regions of the yield dataset"},
			{"/api/v1/runs", []string{"GET", "POST"}, "Submit a run or list the caller's runs (newest first)"},
			{"/api/v1/runs/{id}/status", []string{"GET"}, "Current lifecycle status of a run"},
			{"/api/v1/runs/{id}/results", []string{"GET"}, "Summary and table of a completed run"},
			{"/api/v1/health", []string{"GET"}, "Server health and version"},
		},
	})
}
