package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/trustlens/internal/client"
	"github.com/ppiankov/trustlens/internal/harvest"
	"github.com/ppiankov/trustlens/internal/model"
	"github.com/ppiankov/trustlens/internal/report"
)

// scanOptions are the per-page flags shared by scan and batch
type scanOptions struct {
	prompt    string
	noFact    bool
	noMedia   bool
	panicMode bool
	render    bool
	settle    time.Duration
}

func (o *scanOptions) register(cmd *cobra.Command) {
	cmd.Flags().String("backend", "http://localhost:8080", "TrustLens backend URL")
	cmd.Flags().String("key", "", "caller key (prefer TRUSTLENS_GUARD_CALLER_KEY)")
	cmd.Flags().String("ua", model.DefaultConfig().Harvest.UserAgent, "HTTP User-Agent")
	cmd.Flags().Bool("robots", false, "respect robots.txt when fetching pages and media")
	cmd.Flags().String("http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cmd.Flags().String("https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")

	cmd.Flags().StringVar(&o.prompt, "prompt", "", "question to ask about the page")
	cmd.Flags().BoolVar(&o.noFact, "no-fact", false, "skip fact checking")
	cmd.Flags().BoolVar(&o.noMedia, "no-media", false, "skip media checking (no downloads)")
	cmd.Flags().BoolVar(&o.panicMode, "panic", false, "panic mode: allow a full-length video")
	cmd.Flags().BoolVar(&o.render, "render", false, "render the page in headless Chrome before harvesting")
	cmd.Flags().DurationVar(&o.settle, "settle", time.Second, "wait after load for script output (with --render)")
}

func bindScanFlags(cmd *cobra.Command) error {
	return bindFlags(cmd.Flags(), map[string]string{
		"backend":     "guard.backend_url",
		"key":         "guard.caller_key",
		"ua":          "harvest.user_agent",
		"robots":      "harvest.respect_robots",
		"http-proxy":  "harvest.http_proxy",
		"https-proxy": "harvest.https_proxy",
	})
}

var (
	scanOpts scanOptions
	outJSON  string
	outMD    string
	timeout  time.Duration
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <url>",
	Short: "Assess a single page",
	Long: `Scan harvests one page and asks the backend for a trust assessment:
- Fetch the page (or render it in headless Chrome)
- Extract the main text and the first images and video
- Mask personal data (emails, phones, card numbers, addresses, names)
- Send the masked text and media to the backend and print the result

Example:
  trustlens scan https://example.com/story --key $KEY
  trustlens scan https://example.com/story --md report.md --json report.json
  trustlens scan https://example.com/video --panic --render`,
	Args:    cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error { return bindScanFlags(cmd) },
	RunE:    runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanOpts.register(scanCmd)
	scanCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	scanCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	scanCmd.Flags().DurationVar(&timeout, "timeout", 3*time.Minute, "overall scan timeout")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Scanning: %s\n", args[0])
		fmt.Fprintf(os.Stderr, "Backend: %s\n", cfg.Guard.BackendURL)
		fmt.Fprintf(os.Stderr, "Mode: %s\n\n", scanOpts.mode())
	}

	scanner := newPageScanner(cfg, scanOpts, logger)
	r, err := scanner.Scan(ctx, args[0])
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if outJSON != "" {
		if err := report.WriteFile(outJSON, *r, report.WriteJSON); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}
	if outMD != "" {
		if err := report.WriteFile(outMD, *r, report.WriteMarkdown); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", outMD)
		}
	}

	report.WriteSummary(cmd.OutOrStdout(), *r)
	return nil
}

func (o scanOptions) mode() model.HarvestMode {
	if o.panicMode {
		return model.ModePanic
	}
	return model.ModeLightweight
}

// pageScanner assesses pages through the client coordinator
type pageScanner struct {
	coord *client.Coordinator
	opts  scanOptions
}

func newPageScanner(cfg *model.Config, opts scanOptions, logger *zap.Logger) *pageScanner {
	hc := cfg.Harvest

	var pages client.PageSource
	if opts.render {
		pages = harvest.NewChromeRenderer(hc.UserAgent, hc.Timeout, opts.settle)
	} else {
		pages = harvest.NewFetcher(hc.Timeout, hc.UserAgent, hc.MaxPageBytes, hc.RespectRobots, hc.HTTPProxy, hc.HTTPSProxy, "")
	}

	// Media uploads can be large; the backend bounds the request itself
	backend := &http.Client{Timeout: cfg.Services.MediaCheckTimeout + cfg.Services.DeadlineMargin + 30*time.Second}

	coord := client.NewCoordinator(client.Deps{
		Pages:      pages,
		Harvester:  harvest.NewHarvester(hc.MaxTextChars, hc.MinContentChars),
		Downloader: harvest.NewDownloader(hc, logger),
		Analysis:   client.NewAnalysisClient(cfg.Guard.BackendURL, backend),
		Logger:     logger,
	}, cfg.Guard.CallerKey)

	return &pageScanner{coord: coord, opts: opts}
}

// Scan implements worker.Scanner
func (s *pageScanner) Scan(ctx context.Context, rawURL string) (*report.Report, error) {
	reply, err := s.coord.Dispatch(ctx, client.AnalyzePage{
		URL:           rawURL,
		Prompt:        s.opts.prompt,
		RunFactCheck:  !s.opts.noFact,
		RunMediaCheck: !s.opts.noMedia,
		Mode:          s.opts.mode(),
	})
	if err != nil {
		return nil, err
	}

	r := &report.Report{
		URL:            rawURL,
		GeneratedAt:    time.Now(),
		Mode:           s.opts.mode().String(),
		Assessment:     *reply.Assessment,
		Classification: reply.Classification,
	}
	if reply.Redaction != nil {
		r.RedactedTypes = reply.Redaction.DetectedTypes
	}
	return r, nil
}
