package testpredict

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/okian/sentio/pkg/logger"
)

// ErrViolations is returned by Run when any check failed.
var ErrViolations = errors.New("verification failed")

// File permission constants.
const (
	directoryPermission = 0750
	reportPermission    = 0600
)

// Run executes the complete verification and returns its report. The
// report is also returned alongside ErrViolations.
func Run(ctx context.Context, config *Config) (*Report, error) {
	if config.Repeat < MinRepeat {
		config.Repeat = MinRepeat
	}
	if config.Workers < 1 {
		config.Workers = 1
	}

	report := &Report{
		RunID:   uuid.NewString(),
		BaseURL: config.BaseURL,
		Stats: Stats{
			StartTime: time.Now(),
			ByLabel:   make(map[string]int),
		},
	}

	logger.Get().Info(ctx, "starting sentio prediction test",
		logger.String("runID", report.RunID),
		logger.String("baseURL", config.BaseURL),
		logger.String("corpus", config.CorpusFile),
		logger.Int("repeat", config.Repeat),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.Bool("verbose", config.Verbose))

	// Step 1: Check service liveness
	if err := checkServiceHealth(ctx, config); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Load corpus
	texts, err := LoadCorpus(ctx, config.CorpusFile)
	if err != nil {
		return nil, fmt.Errorf("corpus loading failed: %w", err)
	}
	report.Stats.Texts = len(texts)

	// Step 3: Submit concurrently
	results := submitCorpus(ctx, config, texts, &report.Stats)
	for _, res := range results {
		if res.StatusCode == StatusOK && res.Err == "" {
			report.Stats.ByLabel[res.Prediction.Sentiment.String()]++
		}
	}

	// Step 4: Verify
	report.Violations = append(verifyResults(results), verifyValidation(ctx, config)...)
	if report.Violations == nil {
		report.Violations = []Violation{}
	}

	report.Stats.EndTime = time.Now()
	report.Stats.Duration = report.Stats.EndTime.Sub(report.Stats.StartTime)

	// Step 5: Save report
	if err := saveReport(ctx, config, report); err != nil {
		logger.Get().Warn(ctx, "failed to save report", logger.Error(err))
	}

	displayFinalStats(ctx, report)

	if !report.Passed() {
		return report, fmt.Errorf("%w: %d violations", ErrViolations, len(report.Violations))
	}
	logger.Get().Info(ctx, "test completed successfully")
	return report, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, config.BaseURL+"/livez")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	_, _ = readResponseBody(resp)

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveReport writes the report as indented JSON.
func saveReport(ctx context.Context, config *Config, report *Report) error {
	filename := config.ReportFile
	if filename == "" {
		filename = "predict_report_" + report.Stats.StartTime.Format("20060102_150405") + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), reportPermission); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	logger.Get().Info(ctx, "report saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final test statistics and each violation.
func displayFinalStats(ctx context.Context, report *Report) {
	stats := report.Stats
	var successRate, requestsPerSecond float64

	if stats.Submitted > 0 {
		successRate = float64(stats.Successful) / float64(stats.Submitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		requestsPerSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	for _, v := range report.Violations {
		logger.Get().Warn(ctx, "violation",
			logger.String("kind", v.Kind),
			logger.String("text", v.Text),
			logger.String("message", v.Message))
	}

	logger.Get().Info(ctx, "final statistics",
		logger.String("runID", report.RunID),
		logger.Int("texts", stats.Texts),
		logger.Int("submitted", stats.Submitted),
		logger.Int("successful", stats.Successful),
		logger.Int("failed", stats.Failed),
		logger.Any("byLabel", stats.ByLabel),
		logger.Int("violations", len(report.Violations)),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("requestsPerSecond", requestsPerSecond))
}
