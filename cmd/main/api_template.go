package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/CTAG07/Folio/pkg/sitegen"
	"github.com/CTAG07/Folio/pkg/templating"
	"github.com/go-chi/chi/v5"
)

// TemplateAPI holds the dependencies for the template API handlers.
type TemplateAPI struct {
	tm     *templating.TemplateManager
	gen    *sitegen.Generator
	sites  *SiteAPI
	logger *slog.Logger
}

// TemplateList is the response for the template listing endpoint.
type TemplateList struct {
	Default   string   `json:"default"`
	Templates []string `json:"templates"`
}

// NewTemplateAPI creates a new instance of the TemplateAPI.
func NewTemplateAPI(tm *templating.TemplateManager, gen *sitegen.Generator, sites *SiteAPI, logger *slog.Logger) *TemplateAPI {
	return &TemplateAPI{
		tm:     tm,
		gen:    gen,
		sites:  sites,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for all /api/templates endpoints.
func (t *TemplateAPI) RegisterRoutes(r chi.Router) {
	r.Route("/api/templates", func(r chi.Router) {
		r.Get("/", t.handleList)
		r.Post("/refresh", t.handleRefresh)
		r.With(maxBody(t.sites.maxBodyBytes)).Post("/preview", t.handlePreview)
	})
}

// handleList returns the names of all page templates a request may select.
func (t *TemplateAPI) handleList(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, TemplateList{
		Default:   t.tm.GetConfig().DefaultTemplate,
		Templates: t.tm.GetPageNames(),
	})
}

// handleRefresh triggers a manual refresh of templates from disk.
func (t *TemplateAPI) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	if err := t.tm.Refresh(); err != nil {
		t.logger.Error("API triggered refresh failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to refresh templates: %v", err))
		return
	}
	t.logger.Info("Templates refreshed via API")
	w.WriteHeader(http.StatusNoContent)
}

// handlePreview renders a site request without storing it.
func (t *TemplateAPI) handlePreview(w http.ResponseWriter, r *http.Request) {
	req, ok := t.sites.readRequest(w, r)
	if !ok {
		return
	}

	html, err := t.gen.Preview(r.Context(), req)
	if err != nil {
		if sitegen.IsValidationError(err) {
			respondWithValidationError(w, err)
			return
		}
		t.logger.Error("Failed to render preview", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to render preview: %v", err))
		return
	}
	respondWithHTML(w, http.StatusOK, html)
}
