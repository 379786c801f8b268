// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/sentio/internal/domain/scoring"
	"github.com/okian/sentio/internal/domain/sentiment"
	"github.com/okian/sentio/pkg/logger"
	"github.com/okian/sentio/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotStarted is returned by Predict before Start has run.
var ErrNotStarted = errors.New("service not started")

const (
	customBackend = "custom"
	tracerName    = "github.com/okian/sentio/internal/app"
)

// Service implements the API dependencies for sentiment prediction.
type Service struct {
	mu sync.RWMutex

	// Core components
	scorer scoring.Scorer

	// Configuration
	backend        string
	scoringOpts    []scoring.Option
	scoringTimeout time.Duration

	// State
	started  bool
	served   map[sentiment.Label]*atomic.Int64
	failures atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithScorer injects a scorer; Start will not build one.
func WithScorer(scorer scoring.Scorer) Option {
	return func(s *Service) {
		if scorer != nil {
			s.scorer = scorer
		}
	}
}

// WithBackend selects the scorer Start builds when none was injected.
func WithBackend(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.backend = name
		}
	}
}

// WithScoringOptions passes options to the scorer built by Start.
func WithScoringOptions(opts ...scoring.Option) Option {
	return func(s *Service) {
		s.scoringOpts = append(s.scoringOpts, opts...)
	}
}

// WithScoringTimeout bounds each scorer call; zero disables the limit.
func WithScoringTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.scoringTimeout = d
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		backend: scoring.BackendVader,
		served:  make(map[sentiment.Label]*atomic.Int64, len(sentiment.Labels())),
		logger:  nil, // Will be replaced when service starts
	}
	for _, l := range sentiment.Labels() {
		s.served[l] = &atomic.Int64{}
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the scorer. It is safe to call more than once.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting prediction service...")

	if s.scorer == nil {
		scorer, err := scoring.New(ctx, s.backend, s.scoringOpts...)
		if err != nil {
			return fmt.Errorf("start prediction service: %w", err)
		}
		s.scorer = scorer
	}

	s.started = true
	metrics.SetScorerBackend(s.backendName())
	s.logger.Info(ctx, "prediction service started",
		logger.String("scorer", s.backendName()),
		logger.Duration("scoringTimeout", s.scoringTimeout),
	)

	return nil
}

// Stop releases the scorer.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping prediction service...")

	if closer, ok := s.scorer.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn(context.Background(), "failed to close scorer", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(context.Background(), "prediction service stopped")
}

// Predict scores text and classifies the polarity by its sign. The text is
// echoed unchanged. Scorer failures are returned wrapped in scoring.ErrScoring
// and no partial prediction is produced.
func (s *Service) Predict(ctx context.Context, text string) (sentiment.Prediction, error) {
	s.mu.RLock()
	scorer, started, backend := s.scorer, s.started, s.backendName()
	s.mu.RUnlock()
	if !started {
		return sentiment.Prediction{}, ErrNotStarted
	}

	if s.scoringTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.scoringTimeout)
		defer cancel()
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "sentiment.score",
		trace.WithAttributes(
			attribute.String("scorer.backend", backend),
			attribute.Int("text.bytes", len(text)),
		),
	)
	defer span.End()

	start := time.Now()
	polarity, err := scorer.Score(ctx, text)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0
	metrics.RecordScoringLatency(elapsed)

	if err == nil && (math.IsNaN(polarity) || math.IsInf(polarity, 0)) {
		err = fmt.Errorf("non-finite polarity %v", polarity)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scoring failed")
		s.failures.Add(1)
		metrics.RecordScoringError(backend)
		metrics.RecordErrorLatency("scoring", "scoring_failed", elapsed)
		if !errors.Is(err, scoring.ErrScoring) {
			err = fmt.Errorf("%w: %w", scoring.ErrScoring, err)
		}
		return sentiment.Prediction{}, err
	}

	return s.serve(ctx, span, text, polarity), nil
}

// serve classifies polarity and records the prediction.
func (s *Service) serve(ctx context.Context, span trace.Span, text string, polarity float64) sentiment.Prediction {
	p := sentiment.NewPrediction(text, polarity)
	span.SetAttributes(
		attribute.String("sentiment.label", p.Sentiment.String()),
		attribute.Float64("sentiment.polarity", p.Polarity),
	)
	s.served[p.Sentiment].Add(1)
	metrics.RecordPrediction(p.Sentiment.String(), p.Polarity)

	s.logger.Debug(ctx, "prediction served",
		logger.String("sentiment", p.Sentiment.String()),
		logger.Float64("polarity", p.Polarity),
		logger.Int("textBytes", len(text)),
	)

	return p
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	served := make(map[string]int64, len(s.served))
	var total int64
	for label, n := range s.served {
		v := n.Load()
		served[label.String()] = v
		total += v
	}

	return map[string]interface{}{
		"started":            s.started,
		"scorer":             s.backendName(),
		"scoringTimeoutMs":   s.scoringTimeout.Milliseconds(),
		"predictions":        total,
		"predictionsByLabel": served,
		"scoringFailures":    s.failures.Load(),
	}
}

// backendName reports the scorer's name, or the configured backend before Start.
func (s *Service) backendName() string {
	if s.scorer == nil {
		return s.backend
	}
	if n, ok := s.scorer.(scoring.Named); ok {
		return n.Name()
	}
	return customBackend
}
