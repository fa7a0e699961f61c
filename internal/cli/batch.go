package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/trustlens/internal/report"
	"github.com/ppiankov/trustlens/internal/worker"
)

var (
	batchOpts    scanOptions
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Assess multiple URLs from a file in parallel",
	Long: `Batch assesses many pages concurrently:
- Read URLs from input file (one per line, # for comments)
- Scan with a worker pool, rate-limited per host
- Write a JSON and a Markdown report per URL

Example:
  trustlens batch urls.txt
  trustlens batch urls.txt --concurrency 8 --output-dir ./reports`,
	Args:    cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error { return bindScanFlags(cmd) },
	RunE:    runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchOpts.register(batchCmd)
	batchCmd.Flags().IntVar(&concurrency, "concurrency", 4, "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./trustlens-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	urls, err := worker.ReadURLsFromFile(file)
	if err != nil {
		return fmt.Errorf("read URLs: %w", err)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s (%d URLs)\n", file, len(urls))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Mode:         %s\n", batchOpts.mode())
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	processor := worker.NewBatchProcessor(
		newPageScanner(cfg, batchOpts, logger),
		concurrency,
		worker.NewLimiter(cfg.Harvest.RequestsPerSecond, cfg.Harvest.BurstSize),
	)
	results := processor.ProcessURLs(ctx, urls)

	successCount, failureCount := 0, 0
	for i, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.URL, result.Error)
			continue
		}

		base := filepath.Join(outputDir, fmt.Sprintf("%03d-%s", i+1, reportSlug(result.URL)))
		if err := report.WriteFile(base+".json", *result.Report, report.WriteJSON); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.URL, err)
			continue
		}
		if err := report.WriteFile(base+".md", *result.Report, report.WriteMarkdown); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.URL, err)
			continue
		}

		successCount++
		score := result.Report.Assessment.Score
		fmt.Fprintf(os.Stderr, "✓ %s (trust: %d/100, %s)\n", result.URL, score, report.Verdict(score))
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d URLs\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "\n")

	if successCount == 0 && failureCount > 0 {
		return fmt.Errorf("all %d scans failed", failureCount)
	}
	return nil
}

// reportSlug turns a URL into a short filename-safe name
func reportSlug(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "page"
	}
	s := u.Hostname() + u.Path
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, s)
	s = strings.Trim(s, "_.")
	if len(s) > 80 {
		s = s[:80]
	}
	if s == "" {
		return "page"
	}
	return s
}
