package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/CTAG07/Folio/pkg/sitegen"
	"github.com/CTAG07/Folio/pkg/templating"
	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds the configuration for the HTTP server.
type ServerConfig struct {
	Addr               string            `json:"addr" yaml:"addr"`
	LogLevel           string            `json:"log_level" yaml:"log_level"`
	DataDir            string            `json:"data_dir" yaml:"data_dir"`
	SitesDir           string            `json:"sites_dir" yaml:"sites_dir"`
	MaxBodyBytes       int64             `json:"max_body_bytes" yaml:"max_body_bytes"`
	ShutdownTimeoutSec int               `json:"shutdown_timeout_sec" yaml:"shutdown_timeout_sec"`
	SiteHeaders        map[string]string `json:"site_headers" yaml:"site_headers"`
}

// SiteConfig holds settings for site key generation.
type SiteConfig struct {
	KeyFormat string `json:"key_format" yaml:"key_format"`
	KeyLength int    `json:"key_length" yaml:"key_length"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	Server    *ServerConfig              `json:"server_config" yaml:"server_config"`
	Templates *templating.TemplateConfig `json:"template_config" yaml:"template_config"`
	Sites     *SiteConfig                `json:"site_config" yaml:"site_config"`
}

// DefaultServerConfig creates a server configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Addr:               ":5000",
		LogLevel:           "info",
		DataDir:            "./data",
		SitesDir:           "./data/generated_sites",
		MaxBodyBytes:       1 << 20, // 1MB
		ShutdownTimeoutSec: 10,
		SiteHeaders: map[string]string{
			"X-Content-Type-Options":  "nosniff",
			"X-Frame-Options":         "SAMEORIGIN",
			"Referrer-Policy":         "strict-origin-when-cross-origin",
			"Content-Security-Policy": "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:",
		},
	}
}

// DefaultSiteConfig creates a site configuration with default values.
func DefaultSiteConfig() *SiteConfig {
	return &SiteConfig{
		KeyFormat: "uuid",
		KeyLength: 21,
	}
}

// DefaultConfig returns a Config with every section set to its defaults.
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Templates: templating.DefaultConfig(),
		Sites:     DefaultSiteConfig(),
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func marshalConfig(path string, config *Config) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(config)
	}
	return json.MarshalIndent(config, "", "  ")
}

// LoadConfig reads the configuration from a JSON or YAML file at the given path.
// The format is picked from the file extension. If the file doesn't exist, it
// creates one with default values.
func LoadConfig(path string) (*Config, error) {
	// Initialize with default configurations
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		// If the file doesn't exist, create it with the default config.
		if os.IsNotExist(err) {
			var data []byte
			data, err = marshalConfig(path, config)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// Log a warning instead of failing, as the server can still run with defaults.
				fmt.Printf("warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if isYAML(path) {
		err = yaml.Unmarshal(file, config)
	} else {
		err = json.Unmarshal(file, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	if err = config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}
	return config, nil
}

// applyDefaults fills sections that were explicitly nulled out in the file.
func (c *Config) applyDefaults() {
	if c.Server == nil {
		c.Server = DefaultServerConfig()
	}
	if c.Templates == nil {
		c.Templates = templating.DefaultConfig()
	}
	if c.Sites == nil {
		c.Sites = DefaultSiteConfig()
	}
	if c.Server.SitesDir == "" {
		c.Server.SitesDir = filepath.Join(c.Server.DataDir, "generated_sites")
	}
	if c.Server.ShutdownTimeoutSec <= 0 {
		c.Server.ShutdownTimeoutSec = 10
	}
}

// Validate checks values that would otherwise only fail at request time.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server_config.addr must not be empty")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server_config.max_body_bytes must be positive, got %d", c.Server.MaxBodyBytes)
	}
	if c.Templates.DefaultTemplate == "" {
		return fmt.Errorf("template_config.default_template must not be empty")
	}
	if _, err := sitegen.KeyGeneratorFor(c.Sites.KeyFormat, c.Sites.KeyLength); err != nil {
		return fmt.Errorf("site_config: %w", err)
	}
	return nil
}

// parseLogLevel maps the configured level name onto a slog.Level, defaulting to info.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
