package testpredict

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/sentio/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) (io.Closer, error) {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "test_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	if err := logger.Init(logger.WithOutput(multiWriter)); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return file, nil
}

// ShowHelp prints usage information for the prediction test tool.
func ShowHelp() {
	os.Stdout.WriteString(`Sentio Prediction Test Tool
===========================

A concurrent tool for verifying a running sentio service.

Usage:
  go run ./cmd/test-predict [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8000")
  -corpus string
        Corpus file, one text per line (default: built-in examples)
  -repeat int
        Submissions per text, at least 2 (default 2)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -report string
        Output file for the JSON report (default: predict_report_TIMESTAMP.json)
  -log string
        Log file for test output (default: test_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Checks:
  label agrees with the polarity sign, text echoes unchanged,
  repeats of a text agree, and malformed bodies return 422.

Exit status is 1 when any check fails.

Examples:
  # Verify the built-in corpus against a local service
  go run ./cmd/test-predict

  # Verify a custom corpus with more load
  go run ./cmd/test-predict -corpus texts.txt -repeat 5 -workers 16
`)
}
