package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/ppiankov/trustlens/internal/report"
)

// Scanner assesses one page
type Scanner interface {
	Scan(ctx context.Context, rawURL string) (*report.Report, error)
}

// ScanJob represents a URL scan job
type ScanJob struct {
	URL     string
	Scanner Scanner
	Limiter *Limiter
}

// Execute waits for the host's rate limit, then scans
func (j *ScanJob) Execute(ctx context.Context) Result {
	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.URL); err != nil {
			return &ScanResult{URL: j.URL, Error: fmt.Errorf("rate limit: %w", err)}
		}
	}
	r, err := j.Scanner.Scan(ctx, j.URL)
	if err != nil {
		return &ScanResult{URL: j.URL, Error: err}
	}
	return &ScanResult{URL: j.URL, Report: r}
}

// ScanResult represents the result of a scan job
type ScanResult struct {
	URL    string
	Report *report.Report
	Error  error
}

// GetError returns the error from the scan result
func (r *ScanResult) GetError() error {
	return r.Error
}

// BatchProcessor scans many URLs concurrently
type BatchProcessor struct {
	scanner     Scanner
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a new batch processor. limiter may be nil.
func NewBatchProcessor(scanner Scanner, concurrency int, limiter *Limiter) *BatchProcessor {
	return &BatchProcessor{
		scanner:     scanner,
		concurrency: concurrency,
		limiter:     limiter,
	}
}

// ProcessURLs scans the URLs and returns results in input order. URLs not
// started before ctx is cancelled get a context error.
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []*ScanResult {
	if len(urls) == 0 {
		return []*ScanResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, u := range urls {
		if !pool.Submit(&ScanJob{URL: u, Scanner: b.scanner, Limiter: b.limiter}) {
			break
		}
	}

	byURL := make(map[string]*ScanResult, len(urls))
	for _, r := range pool.Wait() {
		sr := r.(*ScanResult)
		byURL[sr.URL] = sr
	}

	out := make([]*ScanResult, len(urls))
	for i, u := range urls {
		if sr, ok := byURL[u]; ok {
			out[i] = sr
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		out[i] = &ScanResult{URL: u, Error: fmt.Errorf("not scanned: %w", err)}
	}
	return out
}

// ProcessFile reads URLs from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ScanResult, error) {
	urls, err := ReadURLsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}

	return b.ProcessURLs(ctx, urls), nil
}

// ReadURLsFromFile reads URLs from a file (one per line)
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadURLs(file)
}

// ReadURLs reads one URL per line, skipping blanks and # comments.
// Duplicates are dropped; anything that is not an absolute http(s) URL is an error.
func ReadURLs(r io.Reader) ([]string, error) {
	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		u, err := url.Parse(line)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("line %d: not an http(s) URL: %q", lineNo, line)
		}

		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return urls, nil
}
