package templating

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/natefinch/atomic"
)

const (
	pageSuffix    = ".tmpl.html"
	partialSuffix = ".part.html"
)

//go:embed defaults/*.html
var defaultTemplates embed.FS

// TemplateManager is the central controller for the templating engine.
// It manages the template set, configuration and function map, and is
// responsible for loading, parsing, and executing templates.
// All methods are concurrent-safe.
type TemplateManager struct {
	logger         *slog.Logger
	config         *TemplateConfig
	templates      *template.Template
	cleanTemplates *template.Template
	templateNames  []string
	funcMap        template.FuncMap
	templateDir    string
	mu             sync.RWMutex
}

// NewTemplateManager creates, initializes, and returns a new TemplateManager.
// Templates are read from the "templates" subdirectory of dataDir. If the
// configuration asks for it, the embedded default templates are written there
// first. It performs an initial Refresh to load all templates.
func NewTemplateManager(logger *slog.Logger, config *TemplateConfig, dataDir string) (*TemplateManager, error) {
	if config == nil {
		config = DefaultConfig()
	}

	tm := &TemplateManager{
		logger:      logger,
		templateDir: filepath.Join(dataDir, "templates"),
		config:      config,
	}
	tm.funcMap = tm.makeFuncMap()

	if config.SeedDefaults {
		if err := tm.seedDefaults(); err != nil {
			return nil, fmt.Errorf("failed to seed default templates: %w", err)
		}
	}

	if err := tm.Refresh(); err != nil {
		return nil, err
	}

	logger.Info("Template manager initialized", "template_dir", tm.templateDir)
	return tm, nil
}

func (tm *TemplateManager) makeFuncMap() template.FuncMap {
	return template.FuncMap{
		// Simple (from funcs_simple.go)
		"add":     add,
		"sub":     sub,
		"inc":     inc,
		"and":     and,
		"or":      or,
		"not":     not,
		"isSet":   isSet,
		"default": defaultValue,

		// Logic & Control (from funcs_logic.go)
		"list":  list,
		"field": field,

		// Content (from funcs_content.go)
		"splitList":  splitList,
		"paragraphs": paragraphs,
		"initials":   initials,
		"lower":      strings.ToLower,
		"upper":      strings.ToUpper,
		"title":      titleCase,

		// Styling (from funcs_styling.go)
		"accentColor": accentColor,
	}
}

// seedDefaults writes the embedded templates into the template directory when
// it does not contain any page template yet. Existing files are never touched.
func (tm *TemplateManager) seedDefaults() error {
	if err := os.MkdirAll(tm.templateDir, 0755); err != nil {
		return err
	}
	existing, err := filepath.Glob(filepath.Join(tm.templateDir, "*"+pageSuffix))
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	entries, err := fs.ReadDir(defaultTemplates, "defaults")
	if err != nil {
		return err
	}
	for _, entry := range entries {
		data, err := defaultTemplates.ReadFile(path.Join("defaults", entry.Name()))
		if err != nil {
			return err
		}
		dst := filepath.Join(tm.templateDir, entry.Name())
		if _, err = os.Stat(dst); err == nil {
			continue
		}
		if err = atomic.WriteFile(dst, bytes.NewReader(data)); err != nil {
			return fmt.Errorf("failed to write %s: %w", entry.Name(), err)
		}
	}
	tm.logger.Info("Seeded default templates", "count", len(entries), "template_dir", tm.templateDir)
	return nil
}

// SetConfig applies a new configuration to the TemplateManager. Changes to the
// default template or the rich field list take effect on the next render.
func (tm *TemplateManager) SetConfig(config *TemplateConfig) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.config = config
}

// Refresh reloads all templates from the filesystem. If parsing fails the
// previously loaded set stays active and the error is returned.
func (tm *TemplateManager) Refresh() error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	filePattern := filepath.Join(tm.templateDir, "*"+pageSuffix)
	tm.logger.Debug("Loading template files...", "pattern", filePattern)

	parsedFiles, err := template.New("").Funcs(tm.funcMap).ParseGlob(filePattern)
	var names []string
	if err != nil {
		if !strings.Contains(err.Error(), "pattern matches no files") {
			tm.logger.Error("failed to parse template files", "error", err)
			return err
		}
		// No template files, so we have to create the object without any
		parsedFiles = template.New("").Funcs(tm.funcMap)
		names = []string{}
	} else {
		for _, t := range parsedFiles.Templates() {
			if strings.HasSuffix(t.Name(), pageSuffix) {
				names = append(names, t.Name())
			}
		}
	}

	filePattern = filepath.Join(tm.templateDir, "*"+partialSuffix)
	tm.logger.Debug("Loading partial files...", "pattern", filePattern)

	newParsedFiles, err := parsedFiles.ParseGlob(filePattern)
	if err != nil {
		if !strings.Contains(err.Error(), "pattern matches no files") {
			tm.logger.Error("failed to parse partial files", "error", err)
			return err
		}
		newParsedFiles = parsedFiles
	}

	if len(names) == 0 {
		tm.logger.Warn("No page templates found", "template_dir", tm.templateDir)
	}

	// Create a clean clone for string executions after all parsing is complete.
	clean, err := newParsedFiles.Clone()
	if err != nil {
		tm.logger.Error("failed to create a clean clone of templates", "error", err)
		return err
	}

	sort.Strings(names)
	tm.templates = newParsedFiles
	tm.cleanTemplates = clean
	tm.templateNames = names
	tm.logger.Info("Loaded template and partial files", "pages", len(names), "count", len(newParsedFiles.Templates())-1) // Subtract one for the root template
	return nil
}

// Execute renders a specific template by name, writing the output to the provided io.Writer.
func (tm *TemplateManager) Execute(w io.Writer, name string, data any) error {
	if name == "" {
		return fmt.Errorf("template name is empty")
	}
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.templates.ExecuteTemplate(w, name, data)
}

// HasTemplate reports whether a page template with the given name is loaded.
// Partials are not pages and are never reported.
func (tm *TemplateManager) HasTemplate(name string) bool {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	for _, n := range tm.templateNames {
		if n == name {
			return true
		}
	}
	return false
}

// GetConfig returns a copy of the current configuration.
func (tm *TemplateManager) GetConfig() TemplateConfig {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return *tm.config
}

// GetPageNames returns the sorted names of the loaded page templates.
func (tm *TemplateManager) GetPageNames() []string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	names := make([]string, len(tm.templateNames))
	copy(names, tm.templateNames)
	return names
}

// GetTemplateNames returns the names of every loaded template, partials included.
func (tm *TemplateManager) GetTemplateNames() []string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	var names []string
	for _, t := range tm.templates.Templates() {
		// By default, there is a root template with no name. We don't want to return this in the list
		if strings.HasSuffix(t.Name(), ".html") {
			names = append(names, t.Name())
		}
	}
	sort.Strings(names)
	return names
}

// GetTemplateDir returns the template dir that the TemplateManager uses.
func (tm *TemplateManager) GetTemplateDir() string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.templateDir
}

// ExecuteTemplateString parses and executes a raw template string using the manager's function map.
// Partials loaded from disk are available to the string template.
func (tm *TemplateManager) ExecuteTemplateString(w io.Writer, content string, data any) error {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	// Clone the clean, unexecuted template set to avoid race conditions and execution state issues.
	tempSet, err := tm.cleanTemplates.Clone()
	if err != nil {
		return fmt.Errorf("failed to clone clean templates for string execution: %w", err)
	}

	t, err := tempSet.Parse(content)
	if err != nil {
		return fmt.Errorf("failed to parse string template: %w", err)
	}

	return t.Execute(w, data)
}
