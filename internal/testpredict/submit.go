package testpredict

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

type job struct {
	index   int
	text    string
	attempt int
}

// submitCorpus posts every text cfg.Repeat times using a worker pool and
// returns the results in submission order.
func submitCorpus(ctx context.Context, config *Config, texts []string, stats *Stats) []Result {
	total := len(texts) * config.Repeat
	log.Printf("📤 Submitting %d texts x%d with %d workers...", len(texts), config.Repeat, config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/predict"
	results := make([]Result, total)

	var (
		submitted  int64
		successful int64
		failed     int64
		lastReport atomic.Int64
	)
	reportInterval := time.Second

	jobs := make(chan job, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for j := range jobs {
				if ctx.Err() != nil {
					return
				}
				res := submitText(ctx, client, url, j.text, j.attempt)
				results[j.index] = res

				n := atomic.AddInt64(&submitted, 1)
				if res.Err == "" && res.StatusCode == StatusOK {
					atomic.AddInt64(&successful, 1)
				} else {
					atomic.AddInt64(&failed, 1)
					if config.Verbose {
						log.Printf("⚠️  %q attempt %d: status %d %s", j.text, j.attempt, res.StatusCode, res.Err)
					}
				}

				now := time.Now().UnixNano()
				last := lastReport.Load()
				if now-last >= int64(reportInterval) && lastReport.CompareAndSwap(last, now) {
					if config.Verbose {
						log.Printf("📊 Progress: %d/%d submitted (success: %d, failed: %d)",
							n, total, atomic.LoadInt64(&successful), atomic.LoadInt64(&failed))
					} else {
						fmt.Printf("\r📤 Submitted: %d/%d (success: %d, failed: %d)",
							n, total, atomic.LoadInt64(&successful), atomic.LoadInt64(&failed))
					}
				}
			}
		}()
	}

	// Attempts are interleaved so repeats of one text land on different workers.
	go func() {
		defer close(jobs)
		index := 0
		for attempt := 1; attempt <= config.Repeat; attempt++ {
			for _, text := range texts {
				select {
				case <-ctx.Done():
					return
				case jobs <- job{index: index, text: text, attempt: attempt}:
				}
				index++
			}
		}
	}()

	wg.Wait()

	if !config.Verbose {
		fmt.Println()
	}

	stats.Submitted = int(atomic.LoadInt64(&submitted))
	stats.Successful = int(atomic.LoadInt64(&successful))
	stats.Failed = int(atomic.LoadInt64(&failed))

	log.Printf(`✅ Submission completed:
   Successful: %d
   Failed: %d
`, stats.Successful, stats.Failed)

	// Jobs skipped after cancellation leave zero results behind.
	out := results[:0]
	for _, r := range results {
		if r.Attempt != 0 {
			out = append(out, r)
		}
	}
	return out
}
