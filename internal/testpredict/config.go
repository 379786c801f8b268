package testpredict

import (
	"time"

	"github.com/okian/sentio/internal/domain/sentiment"
)

// Config holds configuration for the verification run
type Config struct {
	BaseURL    string        // Base URL of the service
	CorpusFile string        // Corpus file, one text per line (empty uses the built-in corpus)
	Repeat     int           // Submissions per text, at least 2 to check idempotence
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	ReportFile string        // Output file for the JSON report
	LogFile    string        // Log file for test output
	Verbose    bool          // Enable verbose logging
}

// Result is one answered submission.
type Result struct {
	Text       string               `json:"text"`
	Attempt    int                  `json:"attempt"`
	StatusCode int                  `json:"status_code"`
	Prediction sentiment.Prediction `json:"prediction"`
	Latency    time.Duration        `json:"latency_ns"`
	Err        string               `json:"error,omitempty"`
}

// Violation is a broken expectation found while verifying responses.
type Violation struct {
	Kind    string `json:"kind"`
	Text    string `json:"text"`
	Message string `json:"message"`
}

// Stats holds test statistics
type Stats struct {
	Texts      int            `json:"texts"`
	Submitted  int            `json:"submitted"`
	Successful int            `json:"successful"`
	Failed     int            `json:"failed"`
	ByLabel    map[string]int `json:"by_label"`
	StartTime  time.Time      `json:"start_time"`
	EndTime    time.Time      `json:"end_time"`
	Duration   time.Duration  `json:"duration_ns"`
}

// Report is the JSON document written at the end of a run.
type Report struct {
	RunID      string      `json:"run_id"`
	BaseURL    string      `json:"base_url"`
	Stats      Stats       `json:"stats"`
	Violations []Violation `json:"violations"`
}

// Passed reports whether the run found no violations.
func (r *Report) Passed() bool {
	return len(r.Violations) == 0
}
