package main

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/CTAG07/Folio/pkg/sitegen"
	"github.com/CTAG07/Folio/pkg/sitestore"
	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
)

const (
	sitesURLPrefix = "/sites/"
	createdMessage = "Website created successfully!"
)

// SiteAPI holds the dependencies for creating and serving generated sites.
type SiteAPI struct {
	gen          *sitegen.Generator
	store        *sitestore.Store
	limits       sitegen.Limits
	maxBodyBytes int64
	headers      map[string]string
	logger       *slog.Logger
}

// CreateSiteResponse is the JSON response after a site has been created.
type CreateSiteResponse struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

// NewSiteAPI creates a new instance of the SiteAPI.
func NewSiteAPI(gen *sitegen.Generator, store *sitestore.Store, limits sitegen.Limits, config *ServerConfig, logger *slog.Logger) *SiteAPI {
	return &SiteAPI{
		gen:          gen,
		store:        store,
		limits:       limits,
		maxBodyBytes: config.MaxBodyBytes,
		headers:      config.SiteHeaders,
		logger:       logger,
	}
}

// RegisterRoutes sets up the routing for site creation and serving.
func (a *SiteAPI) RegisterRoutes(r chi.Router) {
	r.With(maxBody(a.maxBodyBytes)).Post("/api/create-site", a.handleCreate)
	r.Get(sitesURLPrefix+"{file}", a.handleServe)
}

// siteURL returns the public path a stored site is served from.
func siteURL(key string) string {
	return sitesURLPrefix + key + sitestore.Extension
}

// readRequest reads and validates a site request body, writing the error
// response itself when it fails.
func (a *SiteAPI) readRequest(w http.ResponseWriter, r *http.Request) (sitegen.SiteRequest, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return sitegen.SiteRequest{}, false
		}
		respondWithError(w, http.StatusBadRequest, "Failed to read request body")
		return sitegen.SiteRequest{}, false
	}

	req, err := sitegen.ParseRequest(body, a.limits)
	if err != nil {
		respondWithValidationError(w, err)
		return sitegen.SiteRequest{}, false
	}
	return req, true
}

// handleCreate renders the submitted data into a new site and stores it.
func (a *SiteAPI) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := a.readRequest(w, r)
	if !ok {
		return
	}

	site, err := a.gen.Generate(r.Context(), req)
	if err != nil {
		if sitegen.IsValidationError(err) {
			respondWithValidationError(w, err)
			return
		}
		a.logger.Error("Failed to generate site", "name", req.Name, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to generate site")
		return
	}

	if err = a.store.Put(r.Context(), site.Key, site.HTML); err != nil {
		a.logger.Error("Failed to store site", "key", site.Key, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to save site")
		return
	}

	a.logger.Info("Created site",
		"key", site.Key,
		"template", site.Template,
		"size", humanize.Bytes(uint64(len(site.HTML))))
	respondWithJSON(w, http.StatusOK, CreateSiteResponse{
		Message: createdMessage,
		URL:     siteURL(site.Key),
	})
}

// handleServe returns the stored HTML for /sites/{key}.html.
func (a *SiteAPI) handleServe(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	key, ok := strings.CutSuffix(file, sitestore.Extension)
	if !ok {
		http.NotFound(w, r)
		return
	}

	info, err := a.store.Stat(r.Context(), key)
	if err == nil {
		var html []byte
		html, err = a.store.Get(r.Context(), key)
		if err == nil {
			setHeaders(w, a.headers)
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			http.ServeContent(w, r, file, info.ModTime, bytes.NewReader(html))
			return
		}
	}

	if errors.Is(err, sitestore.ErrNotFound) || errors.Is(err, sitestore.ErrInvalidKey) {
		a.logger.Debug("Site not found", "file", file)
		http.NotFound(w, r)
		return
	}
	a.logger.Error("Failed to read site", "key", key, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// respondWithValidationError maps a *sitegen.ValidationError onto a 400 response.
func respondWithValidationError(w http.ResponseWriter, err error) {
	var verr *sitegen.ValidationError
	if !errors.As(err, &verr) {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if verr.Field == "" || verr.Reason == sitegen.MissingDataReason {
		respondWithError(w, http.StatusBadRequest, verr.Reason)
		return
	}
	respondWithError(w, http.StatusBadRequest, verr.Field+": "+verr.Reason)
}
