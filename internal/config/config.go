// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers a .env file, an optional YAML file and SENTIO_* env vars on top.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Scorer backends accepted by the scorer key.
const (
	ScorerVader    = "vader"
	ScorerLanguage = "gcp"
)

// Log formats accepted by the log_format key.
const (
	LogFormatText   = "text"
	LogFormatJSON   = "json"
	LogFormatPretty = "pretty"
)

// Config contains process configuration.
type Config struct {
	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text, json or pretty.
	LogFormat string `koanf:"log_format"`

	// Scorer names the polarity backend: vader or gcp.
	Scorer string `koanf:"scorer"`

	// StripMarkdown renders markdown to plain text before scoring.
	StripMarkdown bool `koanf:"strip_markdown"`

	// MaxBodyBytes caps the request body of POST /predict.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// RequestTimeoutMS bounds whole requests; 0 disables the limit.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// ScoringTimeoutMS bounds a single scorer call; 0 disables the limit.
	ScoringTimeoutMS int `koanf:"scoring_timeout_ms"`

	// GCPLanguageEndpoint overrides the Cloud Natural Language endpoint.
	GCPLanguageEndpoint string `koanf:"gcp_language_endpoint"`

	// Tracing exports spans over OTLP/HTTP when enabled.
	TracingEnabled  bool   `koanf:"tracing_enabled"`
	TracingEndpoint string `koanf:"tracing_endpoint"`
	TracingInsecure bool   `koanf:"tracing_insecure"`

	// ServiceName is reported in traces and logs.
	ServiceName string `koanf:"service_name"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		Addr:          ":8000",
		LogLevel:      "info",
		LogFormat:     LogFormatText,
		Scorer:        ScorerVader,
		StripMarkdown: false,
		MaxBodyBytes:  1 << 20,
		ServiceName:   "sentio",
	}
}

// RequestTimeout returns the whole-request limit, zero when disabled.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// ScoringTimeout returns the per-call scorer limit, zero when disabled.
func (c *Config) ScoringTimeout() time.Duration {
	return time.Duration(c.ScoringTimeoutMS) * time.Millisecond
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	c.Scorer = strings.ToLower(strings.TrimSpace(c.Scorer))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))

	switch {
	case strings.TrimSpace(c.Addr) == "":
		return invalid("addr must not be empty")
	case c.Scorer != ScorerVader && c.Scorer != ScorerLanguage:
		return invalid(fmt.Sprintf("unknown scorer %q", c.Scorer))
	case c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON && c.LogFormat != LogFormatPretty:
		return invalid(fmt.Sprintf("unknown log_format %q", c.LogFormat))
	case c.MaxBodyBytes <= 0:
		return invalid("max_body_bytes must be positive")
	case c.RequestTimeoutMS < 0:
		return invalid("request_timeout_ms must not be negative")
	case c.ScoringTimeoutMS < 0:
		return invalid("scoring_timeout_ms must not be negative")
	case c.TracingEnabled && strings.TrimSpace(c.TracingEndpoint) == "":
		return invalid("tracing_endpoint is required when tracing is enabled")
	}
	return nil
}
