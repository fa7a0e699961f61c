package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/trustlens/internal/model"
	"github.com/ppiankov/trustlens/internal/util"
)

const (
	defaultMaxRetries = 3
	maxResponseBytes  = 4 << 20
	baseBackoff       = 500 * time.Millisecond
)

// sleepFunc waits between retries (injectable for tests)
var sleepFunc = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Options configures an upstream client
type Options struct {
	BaseURL    string
	MaxRetries int
	HTTPProxy  string
	HTTPSProxy string
	Logger     *zap.Logger
	HTTPClient *http.Client
}

// client is the shared HTTP core of the service clients. Deadlines come from
// the caller's context, never from http.Client.Timeout.
type client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	logger     *zap.Logger
	service    model.ServiceName
}

func newClient(service model.ServiceName, opts Options) *client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:               util.NewProxyFunc(opts.HTTPProxy, opts.HTTPSProxy, ""),
				MaxIdleConnsPerHost: 8,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &client{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		httpClient: httpClient,
		maxRetries: maxRetries,
		logger:     logger,
		service:    service,
	}
}

// statusError is a non-2xx reply from a service
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("unexpected status: %d", e.code)
	}
	return fmt.Sprintf("unexpected status: %d: %s", e.code, e.body)
}

// postJSON sends in as JSON and decodes the reply into out
func (c *client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, path, "application/json", func() io.Reader { return bytes.NewReader(body) }, out)
}

// do runs one request with retries on transient failures
func (c *client) do(ctx context.Context, path, contentType string, body func() io.Reader, out any) error {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		lastErr = c.once(ctx, path, contentType, body(), out)
		if lastErr == nil {
			return nil
		}
		if !isRetryable(ctx, lastErr) || attempt == c.maxRetries-1 {
			break
		}

		backoff := time.Duration(1<<uint(attempt)) * baseBackoff
		c.logger.Debug("retrying upstream call",
			zap.String("service", string(c.service)),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(lastErr))
		if err := sleepFunc(ctx, backoff); err != nil {
			lastErr = err
			break
		}
	}
	return classify(ctx, lastErr)
}

func (c *client) once(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := strings.TrimSpace(string(data))
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return &statusError{code: resp.StatusCode, body: snippet}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// isRetryable reports whether err is a transient failure worth another attempt
func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset") ||
		strings.Contains(s, "eof")
}

// classify maps a final error onto the service error taxonomy
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", model.ErrServiceTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", model.ErrServiceTimeout, err)
	}
	return fmt.Errorf("%w: %v", model.ErrServiceUnavailable, err)
}
