package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/sentio/internal/testpredict"
)

// Default configuration constants.
const (
	defaultRepeat      = 2
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		baseURL    = flag.String("url", "http://localhost:8000", "Base URL of the service")
		corpusFile = flag.String("corpus", "", "Corpus file, one text per line (default: built-in examples)")
		repeat     = flag.Int("repeat", defaultRepeat, "Submissions per text")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		reportFile = flag.String("report", "", "Output file for the JSON report (default: predict_report_TIMESTAMP.json)")
		logFile    = flag.String("log", "", "Log file for test output (default: test_log_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testpredict.ShowHelp()
		return 0
	}

	closer, err := testpredict.SetupLogging(*logFile)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return 1
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultTestTimeout)
	defer cancel()

	config := &testpredict.Config{
		BaseURL:    *baseURL,
		CorpusFile: *corpusFile,
		Repeat:     *repeat,
		Workers:    *workers,
		Timeout:    *timeout,
		ReportFile: *reportFile,
		LogFile:    *logFile,
		Verbose:    *verbose,
	}

	if _, err := testpredict.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		return 1
	}
	return 0
}
