package harvest

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeRenderer loads a page in headless Chrome and returns the rendered DOM,
// for pages that build their content with script
type ChromeRenderer struct {
	userAgent string
	timeout   time.Duration
	settle    time.Duration
}

// NewChromeRenderer creates a renderer. settle is how long to wait after
// load for late script output.
func NewChromeRenderer(userAgent string, timeout, settle time.Duration) *ChromeRenderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChromeRenderer{userAgent: userAgent, timeout: timeout, settle: settle}
}

// Render navigates to rawURL and returns the final URL and outer HTML
func (r *ChromeRenderer) Render(ctx context.Context, rawURL string) (*FetchResult, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(r.userAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, r.timeout)
	defer cancelTimeout()

	var html, finalURL string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(r.settle),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", rawURL, err)
	}

	return &FetchResult{HTML: html, FinalURL: finalURL, ContentType: "text/html", StatusCode: 200}, nil
}

// Load implements the client's page source
func (r *ChromeRenderer) Load(ctx context.Context, rawURL string) (*FetchResult, error) {
	return r.Render(ctx, rawURL)
}
