package templating

// TemplateConfig holds all configuration options for the templating engine.
type TemplateConfig struct {
	// DefaultTemplate is the page template used when a request does not name one.
	DefaultTemplate string `json:"default_template" yaml:"default_template"`

	// RichFields lists the request fields that may contain markup. Their values
	// are sanitized and rendered as HTML instead of being escaped.
	RichFields []string `json:"rich_fields" yaml:"rich_fields"`

	// MaxFieldLength is the maximum length, in runes, of a single string field.
	MaxFieldLength int `json:"max_field_length" yaml:"max_field_length"`

	// MaxFields caps the number of fields a single request may carry.
	MaxFields int `json:"max_fields" yaml:"max_fields"`

	// SeedDefaults writes the embedded default templates into the template
	// directory when it contains no page templates.
	SeedDefaults bool `json:"seed_defaults" yaml:"seed_defaults"`
}

// DefaultConfig returns a TemplateConfig with safe default values.
func DefaultConfig() *TemplateConfig {
	return &TemplateConfig{
		DefaultTemplate: "portfolio.tmpl.html",
		RichFields:      []string{"about"},
		MaxFieldLength:  10_000,
		MaxFields:       64,
		SeedDefaults:    true,
	}
}
