package main

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/CTAG07/Folio/pkg/sitegen"
	"github.com/CTAG07/Folio/pkg/sitestore"
	"github.com/CTAG07/Folio/pkg/templating"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed web
var webFS embed.FS

// indexData is the data the form page is rendered with.
type indexData struct {
	Templates       []string
	DefaultTemplate string
}

// Server wires the generator, the store and the HTTP handlers together.
type Server struct {
	config        *Config
	logger        *slog.Logger
	tm            *templating.TemplateManager
	gen           *sitegen.Generator
	store         *sitestore.Store
	siteAPI       *SiteAPI
	templateAPI   *TemplateAPI
	serverAPI     *ServerAPI
	indexTemplate *template.Template
	router        chi.Router
}

// NewServer builds every component from config and registers all routes.
func NewServer(config *Config, logger *slog.Logger) (*Server, error) {
	tm, err := templating.NewTemplateManager(logger, config.Templates, config.Server.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create template manager: %w", err)
	}

	store, err := sitestore.New(config.Server.SitesDir, sitestore.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open site store: %w", err)
	}

	keys, err := sitegen.KeyGeneratorFor(config.Sites.KeyFormat, config.Sites.KeyLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create key generator: %w", err)
	}

	gen := sitegen.NewGenerator(tm,
		sitegen.WithKeyGenerator(keys),
		sitegen.WithDefaultTemplate(config.Templates.DefaultTemplate),
		sitegen.WithRichFields(config.Templates.RichFields...),
		sitegen.WithLogger(logger),
	)

	limits := sitegen.Limits{
		MaxFields:      config.Templates.MaxFields,
		MaxFieldLength: config.Templates.MaxFieldLength,
	}

	indexTemplate, err := template.ParseFS(webFS, "web/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse index template: %w", err)
	}

	siteAPI := NewSiteAPI(gen, store, limits, config.Server, logger)
	server := &Server{
		config:        config,
		logger:        logger,
		tm:            tm,
		gen:           gen,
		store:         store,
		siteAPI:       siteAPI,
		templateAPI:   NewTemplateAPI(tm, gen, siteAPI, logger),
		serverAPI:     NewServerAPI(),
		indexTemplate: indexTemplate,
	}

	staticFS, err := fs.Sub(webFS, "web/static")
	if err != nil {
		return nil, fmt.Errorf("failed to open static assets: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/", server.handleIndex)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(staticFS)))
	server.siteAPI.RegisterRoutes(r)
	server.templateAPI.RegisterRoutes(r)
	server.serverAPI.RegisterRoutes(r)

	server.router = r
	logger.Info("Server initialized", "sites_dir", store.Root(), "default_template", config.Templates.DefaultTemplate)
	return server, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// handleIndex renders the input form.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	data := indexData{
		Templates:       s.tm.GetPageNames(),
		DefaultTemplate: s.tm.GetConfig().DefaultTemplate,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.indexTemplate.Execute(w, data); err != nil {
		s.logger.Error("Failed to render index template", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
