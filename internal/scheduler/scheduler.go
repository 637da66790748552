package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/grabbit/internal/fetcher"
	"github.com/tanq16/grabbit/internal/index"
	"github.com/tanq16/grabbit/internal/output"
	"github.com/tanq16/grabbit/internal/utils"
)

// Job is one URL to fetch, with an optional name override from a batch
// manifest.
type Job struct {
	ID       string
	URL      string
	Filename string
}

// NewJob assigns a fresh ID to a fetch job.
func NewJob(url, filename string) Job {
	return Job{ID: uuid.NewString(), URL: url, Filename: filename}
}

type Options struct {
	OutputDir     string
	MaxBytes      int64
	Delay         time.Duration
	Timeout       time.Duration
	UserAgent     string
	ProxyURL      string
	ProxyUsername string
	ProxyPassword string
	Headers       map[string]string
	NoIndex       bool
}

// Summary tallies one run. Duplicates are skips, not failures.
type Summary struct {
	Saved      int
	Duplicates int
	Failed     int
}

// Run fetches jobs one at a time, spacing requests with the politeness
// delay, then persists the index and prints the run summary.
func Run(ctx context.Context, jobs []Job, opts Options) (Summary, error) {
	if len(jobs) == 0 {
		return Summary{}, fmt.Errorf("no URLs to fetch")
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return Summary{}, fmt.Errorf("error creating output directory: %v", err)
	}
	var idx *index.Index
	if opts.NoIndex {
		idx = index.New()
	} else {
		idx = index.Load(filepath.Join(opts.OutputDir, index.Filename))
	}
	client := utils.NewClient(utils.HTTPClientConfig{
		Timeout:       opts.Timeout,
		UserAgent:     opts.UserAgent,
		ProxyURL:      opts.ProxyURL,
		ProxyUsername: opts.ProxyUsername,
		ProxyPassword: opts.ProxyPassword,
		Headers:       opts.Headers,
	})
	grab := fetcher.New(client, fetcher.Config{OutputDir: opts.OutputDir, MaxBytes: opts.MaxBytes}, idx)
	gate := newGate(opts.Delay)

	var summary Summary
	for i, job := range jobs {
		if err := gate.wait(ctx); err != nil {
			log.Warn().Str("op", "scheduler").Err(err).Msg("Run interrupted, remaining jobs dropped")
			summary.Failed += len(jobs) - i
			break
		}
		output.PrintInfo(output.TrimToWidth(fmt.Sprintf("[%d/%d] %s %s", i+1, len(jobs), output.StyleSymbols["arrow"], job.URL), 0))
		log.Debug().Str("op", "scheduler").Str("job", job.ID).Msgf("Fetching %s", job.URL)
		result, err := grab.Fetch(ctx, fetcher.Request{URL: job.URL, Filename: job.Filename})
		switch {
		case err == nil:
			summary.Saved++
			output.PrintSuccess(fmt.Sprintf("  %s saved %s (%s)", output.StyleSymbols["pass"], result.Filename, output.FormatBytes(uint64(result.Size))))
		case fetcher.IsDuplicate(err):
			summary.Duplicates++
			output.PrintWarning(fmt.Sprintf("  %s %v", output.StyleSymbols["warning"], err))
		default:
			summary.Failed++
			output.PrintError(fmt.Sprintf("  %s %v", output.StyleSymbols["fail"], err))
			log.Debug().Str("op", "scheduler").Str("job", job.ID).Err(err).Msg("Fetch failed")
		}
	}
	if !opts.NoIndex {
		if err := idx.Save(); err != nil {
			log.Error().Str("op", "scheduler").Err(err).Msg("Could not persist index")
			output.PrintWarning(fmt.Sprintf("%s index not saved: %v", output.StyleSymbols["warning"], err))
		}
	}
	printSummary(summary, opts.OutputDir, idx, opts.NoIndex)
	return summary, nil
}

func printSummary(summary Summary, outputDir string, idx *index.Index, noIndex bool) {
	total := summary.Saved + summary.Duplicates + summary.Failed
	fmt.Println()
	output.PrintHeader(fmt.Sprintf("Processed %d URL(s)", total))
	output.PrintSuccess(fmt.Sprintf("  %s %d saved", output.StyleSymbols["pass"], summary.Saved))
	output.PrintWarning(fmt.Sprintf("  %s %d duplicate(s) skipped", output.StyleSymbols["warning"], summary.Duplicates))
	output.PrintError(fmt.Sprintf("  %s %d failed", output.StyleSymbols["fail"], summary.Failed))
	absDir, err := filepath.Abs(outputDir)
	if err != nil {
		absDir = outputDir
	}
	output.PrintDetail(fmt.Sprintf("  %s saved to %s", output.StyleSymbols["bullet"], absDir))
	if !noIndex {
		output.PrintDetail(fmt.Sprintf("  %s index: %s (%d entries)", output.StyleSymbols["bullet"], idx.Path(), idx.Len()))
	}
}
