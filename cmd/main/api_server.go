package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ServerAPI serves process level endpoints.
type ServerAPI struct{}

// VersionInfo defines the structure for build/version information.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// NewServerAPI creates a new instance of the ServerAPI.
func NewServerAPI() *ServerAPI {
	return &ServerAPI{}
}

// RegisterRoutes sets up the routing for the health and version endpoints.
func (a *ServerAPI) RegisterRoutes(r chi.Router) {
	r.Get("/api/health", a.handleHealthCheck)
	r.Get("/api/version", a.handleVersion)
}

// handleHealthCheck is left cheap so container runtimes can poll it.
func (a *ServerAPI) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleVersion returns the application's build information.
func (a *ServerAPI) handleVersion(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, VersionInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
	})
}
