package sitegen

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

const (
	// NameField is the only required request field.
	NameField = "name"
	// TemplateField optionally selects the page template.
	TemplateField = "template"

	// MissingDataReason is reported when the request has no usable name.
	MissingDataReason = "Missing required data"
)

// ValidationError reports user-correctable problems with a request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid request: " + e.Reason
	}
	return fmt.Sprintf("invalid request field %q: %s", e.Field, e.Reason)
}

// IsValidationError reports whether err is, or wraps, a *ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// Limits bounds the size of a request. Zero values disable a limit.
type Limits struct {
	MaxFields      int
	MaxFieldLength int
}

// SiteRequest is a validated portfolio submission: one required name and an
// open-ended bag of optional fields.
type SiteRequest struct {
	Name   string
	Fields map[string]any
}

// NewSiteRequest validates a decoded mapping and splits it into the required
// name and the optional fields.
func NewSiteRequest(data map[string]any, limits Limits) (SiteRequest, error) {
	if len(data) == 0 {
		return SiteRequest{}, &ValidationError{Field: NameField, Reason: MissingDataReason}
	}
	raw, ok := data[NameField]
	if !ok || raw == nil {
		return SiteRequest{}, &ValidationError{Field: NameField, Reason: MissingDataReason}
	}
	name, ok := raw.(string)
	if !ok {
		return SiteRequest{}, &ValidationError{Field: NameField, Reason: "must be a string"}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return SiteRequest{}, &ValidationError{Field: NameField, Reason: "must not be empty"}
	}

	if limits.MaxFields > 0 && len(data) > limits.MaxFields {
		return SiteRequest{}, &ValidationError{Reason: fmt.Sprintf("too many fields (max %d)", limits.MaxFields)}
	}

	fields := make(map[string]any, len(data)-1)
	for k, v := range data {
		if limits.MaxFieldLength > 0 && !withinLength(v, limits.MaxFieldLength) {
			return SiteRequest{}, &ValidationError{Field: k, Reason: fmt.Sprintf("longer than %d characters", limits.MaxFieldLength)}
		}
		if k == NameField {
			continue
		}
		fields[k] = v
	}

	if t, present := fields[TemplateField]; present {
		if _, ok = t.(string); !ok {
			return SiteRequest{}, &ValidationError{Field: TemplateField, Reason: "must be a string"}
		}
	}

	return SiteRequest{Name: name, Fields: fields}, nil
}

// ParseRequest decodes a JSON request body and validates it.
func ParseRequest(body []byte, limits Limits) (SiteRequest, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		if errors.Is(err, io.EOF) {
			return SiteRequest{}, &ValidationError{Field: NameField, Reason: MissingDataReason}
		}
		return SiteRequest{}, &ValidationError{Reason: "request body must be a JSON object"}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return SiteRequest{}, &ValidationError{Reason: "request body must contain a single JSON object"}
	}
	return NewSiteRequest(data, limits)
}

// Data returns the full mapping passed to templates, name included.
func (r SiteRequest) Data() map[string]any {
	data := make(map[string]any, len(r.Fields)+1)
	for k, v := range r.Fields {
		data[k] = v
	}
	data[NameField] = r.Name
	return data
}

// Template returns the requested template name, or "" for the default.
func (r SiteRequest) Template() string {
	t, _ := r.Fields[TemplateField].(string)
	return strings.TrimSpace(t)
}

// withinLength checks every string nested in v against limit runes.
func withinLength(v any, limit int) bool {
	switch val := v.(type) {
	case string:
		return utf8.RuneCountInString(val) <= limit
	case json.Number:
		return len(val) <= limit
	case []any:
		for _, item := range val {
			if !withinLength(item, limit) {
				return false
			}
		}
	case map[string]any:
		for k, item := range val {
			if utf8.RuneCountInString(k) > limit || !withinLength(item, limit) {
				return false
			}
		}
	}
	return true
}
