package scoring

import (
	"context"
	"fmt"

	language "cloud.google.com/go/language/apiv2"
	"cloud.google.com/go/language/apiv2/languagepb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
)

// LanguageAnalyzer is the subset of the Cloud Natural Language client used here.
type LanguageAnalyzer interface {
	AnalyzeSentiment(ctx context.Context, req *languagepb.AnalyzeSentimentRequest, opts ...gax.CallOption) (*languagepb.AnalyzeSentimentResponse, error)
	Close() error
}

// LanguageScorer delegates to the hosted Natural Language API and returns the
// document sentiment score, which the API bounds to [-1, 1].
type LanguageScorer struct {
	settings *settings
	client   LanguageAnalyzer
}

// NewLanguageScorer creates a client from application default credentials
// unless one was injected with WithLanguageClient.
func NewLanguageScorer(ctx context.Context, opts ...Option) (*LanguageScorer, error) {
	s := newSettings(opts)

	client := s.languageClient
	if client == nil {
		var clientOpts []option.ClientOption
		if s.languageEndpoint != "" {
			clientOpts = append(clientOpts, option.WithEndpoint(s.languageEndpoint))
		}
		c, err := language.NewClient(ctx, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("create language client: %w", err)
		}
		client = c
	}

	return &LanguageScorer{settings: s, client: client}, nil
}

// Name implements Named.
func (s *LanguageScorer) Name() string { return BackendLanguage }

// Score implements Scorer.
func (s *LanguageScorer) Score(ctx context.Context, text string) (float64, error) {
	text = s.settings.prepare(text)
	// The API rejects empty documents; an empty text carries no sentiment.
	if isBlank(text) {
		return 0, nil
	}

	resp, err := s.client.AnalyzeSentiment(ctx, &languagepb.AnalyzeSentimentRequest{
		Document: &languagepb.Document{
			Source: &languagepb.Document_Content{
				Content: text,
			},
			Type: languagepb.Document_PLAIN_TEXT,
		},
		EncodingType: languagepb.EncodingType_UTF8,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: analyze sentiment: %w", ErrScoring, err)
	}

	return float64(resp.GetDocumentSentiment().GetScore()), nil
}

// Close releases the underlying client connection.
func (s *LanguageScorer) Close() error {
	return s.client.Close()
}
