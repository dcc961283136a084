package sitegen

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PreviewKey is the key shown to templates rendered by Preview.
const PreviewKey = "preview"

var tracer = otel.Tracer("github.com/CTAG07/Folio/pkg/sitegen")

// Renderer executes named page templates.
type Renderer interface {
	Execute(w io.Writer, name string, data any) error
	HasTemplate(name string) bool
}

// SiteData is the value every page template is executed with.
type SiteData struct {
	Name      string
	Key       string
	Data      map[string]any
	Generated time.Time
	Year      int
}

// GeneratedSite is a rendered page and the key it must be stored under.
type GeneratedSite struct {
	Key       string
	HTML      []byte
	Template  string
	CreatedAt time.Time
}

// Generator validates requests, assigns keys and renders pages.
// It is safe for concurrent use once constructed.
type Generator struct {
	renderer        Renderer
	keys            KeyGenerator
	defaultTemplate string
	richFields      map[string]struct{}
	policy          *bluemonday.Policy
	now             func() time.Time
	logger          *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithKeyGenerator replaces the default UUIDv4 key strategy.
func WithKeyGenerator(keys KeyGenerator) Option {
	return func(g *Generator) {
		g.keys = keys
	}
}

// WithDefaultTemplate sets the template used when a request names none.
func WithDefaultTemplate(name string) Option {
	return func(g *Generator) {
		g.defaultTemplate = name
	}
}

// WithRichFields marks fields whose values are sanitized and rendered as HTML.
func WithRichFields(fields ...string) Option {
	return func(g *Generator) {
		g.richFields = make(map[string]struct{}, len(fields))
		for _, f := range fields {
			g.richFields[f] = struct{}{}
		}
	}
}

// WithClock sets the time source used for generation timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithLogger sets the logger used for generation events.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// NewGenerator returns a Generator rendering through r.
func NewGenerator(r Renderer, opts ...Option) *Generator {
	g := &Generator{
		renderer:        r,
		keys:            UUIDv4(),
		defaultTemplate: "portfolio.tmpl.html",
		richFields:      map[string]struct{}{},
		policy:          bluemonday.UGCPolicy(),
		now:             time.Now,
		logger:          slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate renders req into a new page under a freshly generated key.
// Invalid requests fail with *ValidationError before anything is rendered.
func (g *Generator) Generate(ctx context.Context, req SiteRequest) (site *GeneratedSite, err error) {
	_, span := tracer.Start(ctx, "sitegen.Generate")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	name, err := g.resolveTemplate(req)
	if err != nil {
		return nil, err
	}

	key := g.keys()
	now := g.now()
	span.SetAttributes(attribute.String("site.key", key), attribute.String("site.template", name))

	html, err := g.render(name, g.siteData(req, key, now))
	if err != nil {
		return nil, err
	}

	g.logger.Debug("Generated site", "key", key, "template", name, "size", len(html))
	return &GeneratedSite{
		Key:       key,
		HTML:      html,
		Template:  name,
		CreatedAt: now,
	}, nil
}

// Preview renders req exactly like Generate but without assigning a key.
func (g *Generator) Preview(ctx context.Context, req SiteRequest) ([]byte, error) {
	_, span := tracer.Start(ctx, "sitegen.Preview", trace.WithAttributes(attribute.Bool("site.preview", true)))
	defer span.End()

	name, err := g.resolveTemplate(req)
	if err != nil {
		return nil, err
	}
	return g.render(name, g.siteData(req, PreviewKey, g.now()))
}

func (g *Generator) resolveTemplate(req SiteRequest) (string, error) {
	if req.Name == "" {
		return "", &ValidationError{Field: NameField, Reason: MissingDataReason}
	}
	if name := req.Template(); name != "" {
		if !g.renderer.HasTemplate(name) {
			return "", &ValidationError{Field: TemplateField, Reason: fmt.Sprintf("unknown template %q", name)}
		}
		return name, nil
	}
	if !g.renderer.HasTemplate(g.defaultTemplate) {
		return "", fmt.Errorf("default template %q is not loaded", g.defaultTemplate)
	}
	return g.defaultTemplate, nil
}

func (g *Generator) render(name string, data SiteData) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.renderer.Execute(&buf, name, data); err != nil {
		return nil, fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// siteData builds the template context. Rich fields are sanitized and passed
// as template.HTML; every other value is left to html/template escaping.
func (g *Generator) siteData(req SiteRequest, key string, now time.Time) SiteData {
	data := req.Data()
	for field := range g.richFields {
		if s, ok := data[field].(string); ok {
			data[field] = template.HTML(g.policy.Sanitize(s))
		}
	}
	return SiteData{
		Name:      req.Name,
		Key:       key,
		Data:      data,
		Generated: now,
		Year:      now.Year(),
	}
}
