// Package scoring defines the contract for turning text into a polarity score.
//
// A Scorer is treated as an opaque, deterministic function: given the same
// text it returns the same polarity, conventionally bounded to [-1, 1] where
// the sign carries the sentiment. Backends are selected by name with New.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Backend names accepted by New.
const (
	BackendVader    = "vader"
	BackendLanguage = "gcp"
)

// Sentinel kinds for scoring errors.
var (
	ErrScoring        = errors.New("scoring failed")
	ErrUnknownBackend = errors.New("unknown scoring backend")
)

// Scorer computes a polarity score for a text.
type Scorer interface {
	// Score returns the polarity of text, honoring ctx for cancellation.
	Score(ctx context.Context, text string) (float64, error)
}

// Named is implemented by scorers that report their backend name.
type Named interface {
	Name() string
}

// settings collects the options shared by every backend.
type settings struct {
	stripMarkdown    bool
	languageEndpoint string
	languageClient   LanguageAnalyzer
}

// Option applies a configuration option to a scorer.
type Option func(*settings)

// WithMarkdownStripping renders the text as markdown and keeps only its
// visible words before scoring. The caller's copy of the text is untouched.
func WithMarkdownStripping(enabled bool) Option {
	return func(s *settings) {
		s.stripMarkdown = enabled
	}
}

// WithLanguageEndpoint overrides the Cloud Natural Language API endpoint.
func WithLanguageEndpoint(endpoint string) Option {
	return func(s *settings) {
		s.languageEndpoint = strings.TrimSpace(endpoint)
	}
}

// WithLanguageClient injects a pre-built Natural Language client.
func WithLanguageClient(client LanguageAnalyzer) Option {
	return func(s *settings) {
		if client != nil {
			s.languageClient = client
		}
	}
}

func newSettings(opts []Option) *settings {
	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// prepare returns the text the backend should see.
func (s *settings) prepare(text string) string {
	if s.stripMarkdown {
		return PlainText(text)
	}
	return text
}

// New builds the scorer registered under backend.
func New(ctx context.Context, backend string, opts ...Option) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendVader:
		return NewVaderScorer(opts...), nil
	case BackendLanguage:
		return NewLanguageScorer(ctx, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// isBlank reports whether text carries nothing to score.
func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
