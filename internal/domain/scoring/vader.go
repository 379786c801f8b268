package scoring

import (
	"context"
	"fmt"

	"github.com/jonreiter/govader"
)

// VaderScorer scores text with the VADER lexicon and returns its compound
// score, which is already normalised to [-1, 1].
type VaderScorer struct {
	settings *settings
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVaderScorer loads the lexicon and returns a ready scorer. The analyzer
// is only read after construction, so one instance serves all requests.
func NewVaderScorer(opts ...Option) *VaderScorer {
	return &VaderScorer{
		settings: newSettings(opts),
		analyzer: govader.NewSentimentIntensityAnalyzer(),
	}
}

// Name implements Named.
func (s *VaderScorer) Name() string { return BackendVader }

// Score implements Scorer.
func (s *VaderScorer) Score(ctx context.Context, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrScoring, err)
	}

	text = s.settings.prepare(text)
	if isBlank(text) {
		return 0, nil
	}

	return s.analyzer.PolarityScores(text).Compound, nil
}
